package features

// Feature is a single named model input. Categorical features carry
// their category instead of a number.
type Feature struct {
	Name        string  `json:"name" yaml:"name"`
	Value       float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Category    string  `json:"category,omitempty" yaml:"category,omitempty"`
	Categorical bool    `json:"categorical,omitempty" yaml:"categorical,omitempty"`
}

// Vector is the ordered feature set presented to the model.
type Vector []Feature

// Get returns the feature with the given name.
func (v Vector) Get(name string) (Feature, bool) {
	for _, f := range v {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// Names returns feature names in vector order.
func (v Vector) Names() []string {
	list := make([]string, 0, len(v))
	for _, f := range v {
		list = append(list, f.Name)
	}
	return list
}

func number(name string, val float64) Feature {
	return Feature{Name: name, Value: val}
}

func category(name, val string) Feature {
	return Feature{Name: name, Category: val, Categorical: true}
}

// Assemble maps a request into the model's feature vector, adding the
// derived engagement, ads ratio and premium mobile features.
func Assemble(r Request) Vector {
	return Vector{
		number(ListeningTime, float64(r.ListeningTime)),
		number(SongsPlayed, float64(r.SongsPlayed)),
		number(SkipRate, r.SkipRate),
		number(AdsPerWeek, float64(r.AdsPerWeek)),
		number(OfflineListening, float64(r.OfflineValue())),
		category(SubscriptionType, string(r.Subscription)),
		category(DeviceType, string(r.Device)),
		number(EngagementScore, float64(r.ListeningTime+r.SongsPlayed)),
		number(AdsEngagement, adsEngagement(r.AdsPerWeek, r.ListeningTime)),
		number(PremiumMobile, float64(premiumMobile(r.Subscription, r.Device))),
	}
}

// adsEngagement is ads per listening minute. The +1 keeps zero
// listening time finite.
func adsEngagement(ads, listening int) float64 {
	return float64(ads) / float64(listening+1)
}

func premiumMobile(s Subscription, d Device) int {
	if s == SubscriptionPremium && d == DeviceMobile {
		return premiumMobileTrue
	}
	return 0
}
