package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonInvalidQuantity ReasonCode = "invalid_quantity"
	ReasonInvalidArgument ReasonCode = "invalid_argument"
	ReasonItemNotFound    ReasonCode = "item_not_found"
	ReasonLineNotFound    ReasonCode = "cart_line_not_found"
	ReasonCartEmpty       ReasonCode = "cart_empty"
	ReasonCaseNotFound    ReasonCode = "case_not_found"

	ReasonCatalogLoad ReasonCode = "catalog_load"
	ReasonStoreRead   ReasonCode = "store_read"
	ReasonStoreWrite  ReasonCode = "store_write"

	ReasonToolTimeout  ReasonCode = "tool_timeout"
	ReasonToolUnknown  ReasonCode = "tool_unknown"
	ReasonEventPublish ReasonCode = "event_publish"
	ReasonDial         ReasonCode = "dial"

	ReasonLifecycle    ReasonCode = "lifecycle"
	ReasonDrainTimeout ReasonCode = "drain_timeout"
)
