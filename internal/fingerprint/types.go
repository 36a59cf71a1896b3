// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package fingerprint

import (
	"time"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

// HardwareSignals is the hardware group of a device-signal bundle.
type HardwareSignals struct {
	ScreenResolution    string  `json:"screen_resolution" bson:"screenResolution" validate:"required,resolution"`
	ColorDepth          int     `json:"color_depth,omitempty" bson:"colorDepth,omitempty" validate:"gte=0,lte=64"`
	HardwareConcurrency int     `json:"hardware_concurrency,omitempty" bson:"hardwareConcurrency,omitempty" validate:"gte=0,lte=4096"`
	DeviceMemory        float64 `json:"device_memory,omitempty" bson:"deviceMemory,omitempty" validate:"gte=0,lte=4096"`
	Platform            string  `json:"platform,omitempty" bson:"platform,omitempty" validate:"max=128"`
	MaxTouchPoints      int     `json:"max_touch_points,omitempty" bson:"maxTouchPoints,omitempty" validate:"gte=0,lte=256"`
}

// BrowserSignals is the browser group. TimezoneOffset follows the
// browser convention of minutes west of UTC.
type BrowserSignals struct {
	UserAgent      string   `json:"user_agent" bson:"userAgent" validate:"required,max=1024"`
	Language       string   `json:"language,omitempty" bson:"language,omitempty" validate:"max=64"`
	Languages      []string `json:"languages,omitempty" bson:"languages,omitempty" validate:"max=64"`
	Timezone       string   `json:"timezone,omitempty" bson:"timezone,omitempty" validate:"max=64"`
	TimezoneOffset *int     `json:"timezone_offset,omitempty" bson:"timezoneOffset,omitempty" validate:"omitempty,gte=-900,lte=900"`
	Plugins        []string `json:"plugins,omitempty" bson:"plugins,omitempty" validate:"max=256"`
	MimeTypes      []string `json:"mime_types,omitempty" bson:"mimeTypes,omitempty" validate:"max=512"`
	CookiesEnabled *bool    `json:"cookies_enabled,omitempty" bson:"cookiesEnabled,omitempty"`
}

// RenderingSignals is the rendering group. Canvas and Audio are opaque
// digests produced by the client.
type RenderingSignals struct {
	Canvas        string   `json:"canvas,omitempty" bson:"canvas,omitempty" validate:"max=65536"`
	WebGLVendor   string   `json:"webgl_vendor,omitempty" bson:"webglVendor,omitempty" validate:"max=256"`
	WebGLRenderer string   `json:"webgl_renderer,omitempty" bson:"webglRenderer,omitempty" validate:"max=512"`
	WebGLVersion  string   `json:"webgl_version,omitempty" bson:"webglVersion,omitempty" validate:"max=128"`
	Audio         string   `json:"audio,omitempty" bson:"audio,omitempty" validate:"max=4096"`
	Fonts         []string `json:"fonts,omitempty" bson:"fonts,omitempty" validate:"max=1024"`
}

// NetworkSignals is the network group. It never feeds the hash.
type NetworkSignals struct {
	IPAddress      string           `json:"ip_address,omitempty" bson:"ipAddress,omitempty" validate:"omitempty,ip"`
	ConnectionType string           `json:"connection_type,omitempty" bson:"connectionType,omitempty" validate:"max=32"`
	WebRTCIPs      []string         `json:"webrtc_ips,omitempty" bson:"webrtcIps,omitempty" validate:"max=32,dive,ip"`
	Location       *models.GeoPoint `json:"location,omitempty" bson:"location,omitempty"`
}

// BehavioralSignals is the behavioral group. Timing samples and event
// intervals are in milliseconds. It never feeds the hash.
type BehavioralSignals struct {
	TimingSamples  []float64 `json:"timing_samples,omitempty" bson:"timingSamples,omitempty" validate:"max=1000"`
	EventIntervals []float64 `json:"event_intervals,omitempty" bson:"eventIntervals,omitempty" validate:"max=1000"`
}

// DeviceSignals is a raw bundle captured by the client.
type DeviceSignals struct {
	Hardware   HardwareSignals   `json:"hardware" bson:"hardware" validate:"required"`
	Browser    BrowserSignals    `json:"browser" bson:"browser" validate:"required"`
	Rendering  RenderingSignals  `json:"rendering" bson:"rendering"`
	Network    NetworkSignals    `json:"network" bson:"network"`
	Behavioral BehavioralSignals `json:"behavioral" bson:"behavioral"`
}

// Quality scores signal coverage per group. All values are in [0,1].
type Quality struct {
	Hardware   float64 `json:"hardware" bson:"hardware"`
	Browser    float64 `json:"browser" bson:"browser"`
	Rendering  float64 `json:"rendering" bson:"rendering"`
	Network    float64 `json:"network" bson:"network"`
	Behavioral float64 `json:"behavioral" bson:"behavioral"`
	Overall    float64 `json:"overall" bson:"overall"`
	Uniqueness float64 `json:"uniqueness" bson:"uniqueness"`
	Stability  float64 `json:"stability" bson:"stability"`
}

// VerificationEventType labels an entry in a fingerprint's history.
type VerificationEventType string

const (
	EventRegistered        VerificationEventType = "registered"
	EventSeen              VerificationEventType = "seen"
	EventVerified          VerificationEventType = "verified"
	EventCollisionDetected VerificationEventType = "collision_detected"
	EventBlocked           VerificationEventType = "blocked"
)

// VerificationEvent is one append-only history record.
type VerificationEvent struct {
	Type      VerificationEventType `json:"type" bson:"type"`
	Timestamp time.Time             `json:"timestamp" bson:"timestamp"`
	Detail    string                `json:"detail,omitempty" bson:"detail,omitempty"`
}

// Metadata carries the mutable bookkeeping for a fingerprint.
type Metadata struct {
	RiskFactors         []models.RiskFactor `json:"risk_factors" bson:"riskFactors"`
	CollisionCount      int                 `json:"collision_count" bson:"collisionCount"`
	SimilarDevices      []string            `json:"similar_devices" bson:"similarDevices"`
	VerificationHistory []VerificationEvent `json:"verification_history" bson:"verificationHistory"`
}

// DeviceFingerprint is a stored fingerprint. One record exists per
// (hash, user) pair; the same hash under several users is the signal the
// collision check looks for.
type DeviceFingerprint struct {
	ID           string        `json:"id" bson:"_id"`
	Hash         string        `json:"hash" bson:"hash"`
	UserID       string        `json:"user_id" bson:"userId"`
	Components   DeviceSignals `json:"components" bson:"components"`
	Quality      Quality       `json:"quality" bson:"quality"`
	RiskScore    float64       `json:"risk_score" bson:"riskScore"`
	IsBlocked    bool          `json:"is_blocked" bson:"isBlocked"`
	RegisteredAt time.Time     `json:"registered_at" bson:"registeredAt"`
	LastSeenAt   time.Time     `json:"last_seen_at" bson:"lastSeenAt"`
	UsageCount   int64         `json:"usage_count" bson:"usageCount"`
	Metadata     Metadata      `json:"metadata" bson:"metadata"`
}

// RecordID is the storage key for a (hash, user) pair.
func RecordID(hash, userID string) string {
	return hash + ":" + userID
}

func (fp *DeviceFingerprint) clone() *DeviceFingerprint {
	c := *fp
	c.Components = fp.Components.clone()
	c.Metadata.RiskFactors = append([]models.RiskFactor(nil), fp.Metadata.RiskFactors...)
	c.Metadata.SimilarDevices = append([]string(nil), fp.Metadata.SimilarDevices...)
	c.Metadata.VerificationHistory = append([]VerificationEvent(nil), fp.Metadata.VerificationHistory...)
	return &c
}

func (s DeviceSignals) clone() DeviceSignals {
	c := s
	c.Browser.Languages = append([]string(nil), s.Browser.Languages...)
	c.Browser.Plugins = append([]string(nil), s.Browser.Plugins...)
	c.Browser.MimeTypes = append([]string(nil), s.Browser.MimeTypes...)
	if s.Browser.TimezoneOffset != nil {
		v := *s.Browser.TimezoneOffset
		c.Browser.TimezoneOffset = &v
	}
	if s.Browser.CookiesEnabled != nil {
		v := *s.Browser.CookiesEnabled
		c.Browser.CookiesEnabled = &v
	}
	c.Rendering.Fonts = append([]string(nil), s.Rendering.Fonts...)
	c.Network.WebRTCIPs = append([]string(nil), s.Network.WebRTCIPs...)
	if s.Network.Location != nil {
		loc := *s.Network.Location
		c.Network.Location = &loc
	}
	c.Behavioral.TimingSamples = append([]float64(nil), s.Behavioral.TimingSamples...)
	c.Behavioral.EventIntervals = append([]float64(nil), s.Behavioral.EventIntervals...)
	return c
}

// ComparisonResult is the output of PerformAdvancedComparison.
type ComparisonResult struct {
	Score                float64            `json:"score"`
	CriticalMatches      int                `json:"critical_matches"`
	ExactCriticalMatches int                `json:"exact_critical_matches"`
	Components           map[string]float64 `json:"components"`
	ExactHash            bool               `json:"exact_hash"`
}

// BotCategory buckets a bot score.
type BotCategory string

const (
	BotCategoryHuman      BotCategory = "human"
	BotCategorySuspicious BotCategory = "suspicious"
	BotCategoryAutomated  BotCategory = "automated"
	BotCategoryBot        BotCategory = "bot"
)

// BotDetectionResult is the output of DetectBotBehavior.
type BotDetectionResult struct {
	IsBot      bool        `json:"is_bot"`
	Score      float64     `json:"score"`
	Confidence float64     `json:"confidence"`
	Category   BotCategory `json:"category"`
	Indicators []string    `json:"indicators"`
}

// CollisionRisk is the collision ladder.
type CollisionRisk string

const (
	CollisionRiskLow      CollisionRisk = "low"
	CollisionRiskMedium   CollisionRisk = "medium"
	CollisionRiskHigh     CollisionRisk = "high"
	CollisionRiskCritical CollisionRisk = "critical"
)

// SimilarDevice is one match found by a collision check.
type SimilarDevice struct {
	Hash                 string  `json:"hash"`
	UserID               string  `json:"user_id"`
	Similarity           float64 `json:"similarity"`
	CriticalMatches      int     `json:"critical_matches"`
	ExactCriticalMatches int     `json:"exact_critical_matches"`
	ExactHash            bool    `json:"exact_hash"`
}

// CollisionResult is the output of CheckDeviceCollision.
type CollisionResult struct {
	HasCollision   bool            `json:"has_collision"`
	ExactMatch     bool            `json:"exact_match"`
	CollidingUsers []string        `json:"colliding_users"`
	SimilarDevices []SimilarDevice `json:"similar_devices"`
	RiskLevel      CollisionRisk   `json:"risk_level"`
	// Pending is set when the fuzzy scan was handed to the background queue;
	// only the exact-hash verdict is final.
	Pending bool `json:"pending"`
	// Degraded is set when the store could not be read.
	Degraded bool `json:"degraded"`
}

// ScanRequest asks the background queue to run the fuzzy scan for one
// fingerprint.
type ScanRequest struct {
	Hash        string    `json:"hash"`
	UserID      string    `json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`
	Attempt     int       `json:"attempt"`
}
