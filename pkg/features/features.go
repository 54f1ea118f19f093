package features

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Feature names as the model was trained on them. Order matters.
const (
	ListeningTime    = "listening_time"
	SongsPlayed      = "songs_played_per_day"
	SkipRate         = "skip_rate"
	AdsPerWeek       = "ads_listened_per_week"
	OfflineListening = "offline_listening"
	SubscriptionType = "subscription_type"
	DeviceType       = "device_type"
	EngagementScore  = "EngagementScore"
	AdsEngagement    = "AdsEngagement"
	PremiumMobile    = "PremiumMobile"

	offlineEnabled    = 1
	offlineDisabled   = 0
	premiumMobileTrue = 1
)

// Input control bounds and defaults.
const (
	ListeningTimeMin     = 0
	ListeningTimeMax     = 500
	ListeningTimeDefault = 150

	SongsPlayedMin     = 0
	SongsPlayedMax     = 100
	SongsPlayedDefault = 30

	SkipRateMin     = 0.0
	SkipRateMax     = 1.0
	SkipRateStep    = 0.01
	SkipRateDefault = 0.35

	AdsPerWeekMin     = 0
	AdsPerWeekMax     = 100
	AdsPerWeekDefault = 20
)

var (
	// Names is the ordered schema of an assembled vector.
	Names = []string{
		ListeningTime,
		SongsPlayed,
		SkipRate,
		AdsPerWeek,
		OfflineListening,
		SubscriptionType,
		DeviceType,
		EngagementScore,
		AdsEngagement,
		PremiumMobile,
	}

	ErrInvalidRequest = errors.New("invalid prediction request")
)

// Subscription is the user's plan.
type Subscription string

const (
	SubscriptionFree    Subscription = "Free"
	SubscriptionPremium Subscription = "Premium"
	SubscriptionStudent Subscription = "Student"
	SubscriptionFamily  Subscription = "Family"
)

// Subscriptions lists the plans in dropdown order.
var Subscriptions = []Subscription{
	SubscriptionFree,
	SubscriptionPremium,
	SubscriptionStudent,
	SubscriptionFamily,
}

// Device is the user's primary listening device.
type Device string

const (
	DeviceMobile  Device = "Mobile"
	DeviceDesktop Device = "Desktop"
	DeviceWeb     Device = "Web"
)

// Devices lists the devices in dropdown order.
var Devices = []Device{
	DeviceMobile,
	DeviceDesktop,
	DeviceWeb,
}

// ParseSubscription matches a plan name case-insensitively.
func ParseSubscription(v string) (Subscription, error) {
	for _, s := range Subscriptions {
		if strings.EqualFold(strings.TrimSpace(v), string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown subscription type %q", ErrInvalidRequest, v)
}

// ParseDevice matches a device name case-insensitively.
func ParseDevice(v string) (Device, error) {
	for _, d := range Devices {
		if strings.EqualFold(strings.TrimSpace(v), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown device type %q", ErrInvalidRequest, v)
}

// Offline is one entry of the offline listening dropdown.
type Offline struct {
	Value int
	Label string
}

// OfflineOptions lists the offline listening choices in dropdown order.
var OfflineOptions = []Offline{
	{Value: offlineDisabled, Label: "Disabled"},
	{Value: offlineEnabled, Label: "Enabled"},
}

// ParseOffline matches an offline option by value ("0", "1") or by label,
// case-insensitively.
func ParseOffline(v string) (bool, error) {
	v = strings.TrimSpace(v)
	for _, o := range OfflineOptions {
		if v == strconv.Itoa(o.Value) || strings.EqualFold(v, o.Label) {
			return o.Value == offlineEnabled, nil
		}
	}
	return false, fmt.Errorf("%w: unknown offline listening option %q", ErrInvalidRequest, v)
}

// Request is a snapshot of the input controls for one calculation.
type Request struct {
	ListeningTime    int          `json:"listening_time" yaml:"listening_time"`
	SongsPlayed      int          `json:"songs_played" yaml:"songs_played"`
	SkipRate         float64      `json:"skip_rate" yaml:"skip_rate"`
	AdsPerWeek       int          `json:"ads_per_week" yaml:"ads_per_week"`
	OfflineListening bool         `json:"offline_listening" yaml:"offline_listening"`
	Subscription     Subscription `json:"subscription_type" yaml:"subscription_type"`
	Device           Device       `json:"device_type" yaml:"device_type"`
}

// DefaultRequest returns the request the controls start with.
func DefaultRequest() Request {
	return Request{
		ListeningTime: ListeningTimeDefault,
		SongsPlayed:   SongsPlayedDefault,
		SkipRate:      SkipRateDefault,
		AdsPerWeek:    AdsPerWeekDefault,
		Subscription:  SubscriptionFree,
		Device:        DeviceMobile,
	}
}

// OfflineValue is the encoded offline listening flag, 1 when enabled.
func (r Request) OfflineValue() int {
	if r.OfflineListening {
		return offlineEnabled
	}
	return offlineDisabled
}

// Validate checks the request against the control bounds.
func (r Request) Validate() error {
	if r.ListeningTime < ListeningTimeMin || r.ListeningTime > ListeningTimeMax {
		return fmt.Errorf("%w: listening time %d outside [%d, %d]", ErrInvalidRequest,
			r.ListeningTime, ListeningTimeMin, ListeningTimeMax)
	}
	if r.SongsPlayed < SongsPlayedMin || r.SongsPlayed > SongsPlayedMax {
		return fmt.Errorf("%w: songs played %d outside [%d, %d]", ErrInvalidRequest,
			r.SongsPlayed, SongsPlayedMin, SongsPlayedMax)
	}
	// negated so that NaN is rejected too
	if !(r.SkipRate >= SkipRateMin && r.SkipRate <= SkipRateMax) {
		return fmt.Errorf("%w: skip rate %v outside [%.1f, %.1f]", ErrInvalidRequest,
			r.SkipRate, SkipRateMin, SkipRateMax)
	}
	if r.AdsPerWeek < AdsPerWeekMin || r.AdsPerWeek > AdsPerWeekMax {
		return fmt.Errorf("%w: ads per week %d outside [%d, %d]", ErrInvalidRequest,
			r.AdsPerWeek, AdsPerWeekMin, AdsPerWeekMax)
	}
	if !slices.Contains(Subscriptions, r.Subscription) {
		return fmt.Errorf("%w: unknown subscription type %q", ErrInvalidRequest, r.Subscription)
	}
	if !slices.Contains(Devices, r.Device) {
		return fmt.Errorf("%w: unknown device type %q", ErrInvalidRequest, r.Device)
	}
	return nil
}
