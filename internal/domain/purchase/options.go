package purchase

// TimeSlot is a delivery time slot as shown to shoppers and as stored upstream
type TimeSlot struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Backend string `json:"-"`
}

// TimeSlots are the selectable delivery times
var TimeSlots = []TimeSlot{
	{Value: "10:00", Label: "10:00 AM", Backend: "10AM"},
	{Value: "11:00", Label: "11:00 AM", Backend: "11AM"},
	{Value: "12:00", Label: "12:00 PM", Backend: "12PM"},
}

// Districts are the delivery locations
var Districts = []string{
	"Ampara", "Anuradhapura", "Badulla", "Batticaloa", "Colombo",
	"Galle", "Gampaha", "Hambantota", "Jaffna", "Kalutara",
	"Kandy", "Kegalle", "Kilinochchi", "Kurunegala", "Mannar",
	"Matale", "Matara", "Monaragala", "Mullaitivu", "Nuwara Eliya",
	"Polonnaruwa", "Puttalam", "Ratnapura", "Trincomalee", "Vavuniya",
}

// Products are the items that can be ordered through the purchase form
var Products = []string{
	"Smartphone X100",
	"Wireless Headphones",
	"Laptop Pro 15",
	"Tablet Air 11",
	"Smart Watch Series 5",
	"Bluetooth Speaker",
	"Gaming Console X",
	"Digital Camera 4K",
	"Power Bank 20000mAh",
	"Wireless Charger Pad",
}

// ToBackendTime maps "10:00" style values to the backend's "10AM" form.
// Values that are already in backend form pass through.
func ToBackendTime(value string) (string, bool) {
	for _, s := range TimeSlots {
		if s.Value == value || s.Backend == value {
			return s.Backend, true
		}
	}
	return "", false
}

// FromBackendTime maps "10AM" style values back to "10:00"; unknown values pass through
func FromBackendTime(value string) string {
	for _, s := range TimeSlots {
		if s.Backend == value {
			return s.Value
		}
	}
	return value
}

// IsDistrict reports whether name is a known delivery district
func IsDistrict(name string) bool {
	return contains(Districts, name)
}

// IsProduct reports whether name is a purchasable product
func IsProduct(name string) bool {
	return contains(Products, name)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
