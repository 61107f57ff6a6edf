// Package commerce implements the merchant day: a fixed electronics catalog,
// a persisted shopping cart and confirmed orders.
package commerce

import (
	"errors"
	"fmt"
	"strings"
)

// Product prices are whole rupees.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	Currency    string  `json:"currency"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url"`
	Rating      float64 `json:"rating"`
	Reviews     int     `json:"reviews"`
}

const (
	CategoryElectronics  = "electronics"
	CategoryHomeSecurity = "home-security"
	CategorySmartHome    = "smart-home"
)

func (p Product) Validate() error {
	var errs []error
	if strings.TrimSpace(p.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.Price <= 0 {
		errs = append(errs, fmt.Errorf("invalid price %d", p.Price))
	}
	if p.Currency == "" {
		errs = append(errs, errors.New("currency is required"))
	}
	if p.Category == "" {
		errs = append(errs, errors.New("category is required"))
	}
	if p.Rating < 0 || p.Rating > 5 {
		errs = append(errs, fmt.Errorf("invalid rating %.1f", p.Rating))
	}
	if p.Reviews < 0 {
		errs = append(errs, fmt.Errorf("invalid reviews %d", p.Reviews))
	}
	if len(errs) > 0 {
		return fmt.Errorf("product %s: %w", p.ID, errors.Join(errs...))
	}
	return nil
}

func DefaultProducts() []Product {
	return []Product{
		{ID: "echo-dot-5", Name: "Echo Dot (5th Gen)", Description: "Smart speaker with Alexa - Charcoal", Price: 4499, Currency: "INR", Category: "electronics", ImageURL: "https://picsum.photos/300/300?random=1", Rating: 4.5, Reviews: 12500},
		{ID: "kindle-paperwhite", Name: "Kindle Paperwhite", Description: "8 GB - Now with a 6.8\" display and adjustable warm light", Price: 13999, Currency: "INR", Category: "electronics", ImageURL: "https://picsum.photos/300/300?random=2", Rating: 4.6, Reviews: 8900},
		{ID: "fire-tv-stick", Name: "Fire TV Stick 4K", Description: "Streaming device with Alexa Voice Remote", Price: 4999, Currency: "INR", Category: "electronics", ImageURL: "https://picsum.photos/300/300?random=3", Rating: 4.4, Reviews: 15200},
		{ID: "echo-show-8", Name: "Echo Show 8", Description: "HD smart display with Alexa - Charcoal", Price: 8999, Currency: "INR", Category: "electronics", ImageURL: "https://picsum.photos/300/300?random=4", Rating: 4.5, Reviews: 11200},
		{ID: "ring-doorbell", Name: "Ring Video Doorbell", Description: "1080p HD video, motion detection, two-way talk", Price: 9999, Currency: "INR", Category: "home-security", ImageURL: "https://picsum.photos/300/300?random=5", Rating: 4.3, Reviews: 7800},
		{ID: "alexa-smart-plug", Name: "TP-Link Smart Plug", Description: "Works with Alexa - Control your home from anywhere", Price: 999, Currency: "INR", Category: "smart-home", ImageURL: "https://picsum.photos/300/300?random=6", Rating: 4.2, Reviews: 5600},
		{ID: "blink-outdoor", Name: "Blink Outdoor Camera", Description: "Wireless security camera with two-year battery life", Price: 7999, Currency: "INR", Category: "home-security", ImageURL: "https://picsum.photos/300/300?random=7", Rating: 4.1, Reviews: 4200},
		{ID: "roku-express", Name: "Roku Express 4K+", Description: "Streaming media player with voice remote", Price: 3999, Currency: "INR", Category: "electronics", ImageURL: "https://picsum.photos/300/300?random=3", Rating: 4.3, Reviews: 9800},
		{ID: "echo-show-10", Name: "Echo Show 10 (3rd Gen)", Description: "10.1\" HD smart display with motion - Charcoal", Price: 24999, Currency: "INR", Category: "electronics", ImageURL: "https://picsum.photos/300/300?random=4", Rating: 4.6, Reviews: 6800},
		{ID: "echo-studio", Name: "Echo Studio", Description: "High-fidelity smart speaker with 3D audio and Alexa", Price: 22999, Currency: "INR", Category: "electronics", ImageURL: "https://picsum.photos/300/300?random=8", Rating: 4.7, Reviews: 5200},
		{ID: "kindle-oasis", Name: "Kindle Oasis", Description: "32 GB - Premium e-reader with 7\" display and page turn buttons", Price: 27999, Currency: "INR", Category: "electronics", ImageURL: "https://picsum.photos/300/300?random=2", Rating: 4.8, Reviews: 3400},
		{ID: "fire-tv-cube", Name: "Fire TV Cube (3rd Gen)", Description: "4K streaming media player with built-in Alexa and hands-free TV control", Price: 12999, Currency: "INR", Category: "electronics", ImageURL: "https://picsum.photos/300/300?random=3", Rating: 4.5, Reviews: 9100},
		{ID: "ring-floodlight", Name: "Ring Floodlight Cam Wired Pro", Description: "1080p HD security camera with motion-activated LED floodlights", Price: 18999, Currency: "INR", Category: "home-security", ImageURL: "https://picsum.photos/300/300?random=7", Rating: 4.4, Reviews: 2900},
		{ID: "blink-mini", Name: "Blink Mini Camera", Description: "Compact indoor plug-in smart security camera with motion detection", Price: 2999, Currency: "INR", Category: "home-security", ImageURL: "https://picsum.photos/300/300?random=7", Rating: 4.2, Reviews: 15600},
		{ID: "philips-hue", Name: "Philips Hue White and Color Ambiance", Description: "Smart LED light bulb with 16 million colors, works with Alexa", Price: 5499, Currency: "INR", Category: "smart-home", ImageURL: "https://picsum.photos/300/300?random=11", Rating: 4.6, Reviews: 12300},
		{ID: "smart-lock", Name: "August Smart Lock Pro", Description: "Wi-Fi enabled smart lock with Alexa and Google Assistant support", Price: 19999, Currency: "INR", Category: "smart-home", ImageURL: "https://picsum.photos/300/300?random=6", Rating: 4.3, Reviews: 2100},
		{ID: "nest-thermostat", Name: "Google Nest Learning Thermostat", Description: "3rd Gen smart thermostat that learns your schedule and saves energy", Price: 15999, Currency: "INR", Category: "smart-home", ImageURL: "https://picsum.photos/300/300?random=6", Rating: 4.5, Reviews: 4500},
		{ID: "echo-buds", Name: "Echo Buds (2nd Gen)", Description: "True wireless earbuds with active noise cancellation and Alexa", Price: 8999, Currency: "INR", Category: "electronics", ImageURL: "https://picsum.photos/300/300?random=9", Rating: 4.4, Reviews: 8700},
		{ID: "fire-tablet", Name: "Fire HD 10 Tablet", Description: "10.1\" 1080p Full HD display, 32 GB, Black", Price: 12499, Currency: "INR", Category: "electronics", ImageURL: "https://picsum.photos/300/300?random=10", Rating: 4.3, Reviews: 18900},
		{ID: "ring-alarm", Name: "Ring Alarm 8-Piece Kit", Description: "Home security system with motion detector, contact sensor, and base station", Price: 24999, Currency: "INR", Category: "home-security", ImageURL: "https://picsum.photos/300/300?random=7", Rating: 4.5, Reviews: 3200},
		{ID: "wyze-cam", Name: "Wyze Cam v3", Description: "1080p HD indoor/outdoor security camera with night vision", Price: 3499, Currency: "INR", Category: "home-security", ImageURL: "https://picsum.photos/300/300?random=7", Rating: 4.4, Reviews: 22100},
		{ID: "smart-switch", Name: "TP-Link Kasa Smart Wi-Fi Light Switch", Description: "Works with Alexa and Google Assistant, no hub required", Price: 1999, Currency: "INR", Category: "smart-home", ImageURL: "https://picsum.photos/300/300?random=6", Rating: 4.5, Reviews: 13400},
	}
}
