package catalog

import (
	"net/url"
	"strings"
)

type imageRule struct {
	keywords []string
	image    string
}

// Checked in order; the first rule with a matching keyword wins.
var imageRules = []imageRule{
	{keywords: []string{"headphone", "audio"}, image: "/wireless-headphones.png"},
	{keywords: []string{"watch", "smart"}, image: "/smartwatch-lifestyle.png"},
	{keywords: []string{"coffee", "maker"}, image: "/modern-coffee-maker.png"},
	{keywords: []string{"shoe", "running"}, image: "/running-shoes-on-track.png"},
	{keywords: []string{"backpack", "bag"}, image: "/laptop-backpack.png"},
	{keywords: []string{"speaker", "bluetooth"}, image: "/bluetooth-speaker.png"},
}

// ImageFor returns the display image path for a product name
func ImageFor(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range imageRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.image
			}
		}
	}
	return "/placeholder.svg?height=300&width=300&text=" + url.QueryEscape(name)
}
