package wellness

import "time"

// Signals is everything known about one user at a point in time, as read
// from the backend or posted by the client.
type Signals struct {
	UserID             string             `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Preferences        *Preferences       `json:"preferences,omitempty" yaml:"preferences,omitempty"`
	Biometrics         []BiometricReading `json:"biometrics" yaml:"biometrics"`
	Sessions           []SessionRecord    `json:"sessions" yaml:"sessions"`
	LastSocialActivity *time.Time         `json:"last_social_activity,omitempty" yaml:"last_social_activity,omitempty"`
}

// ContextOptions translates the optional signals into snapshot options.
func (s *Signals) ContextOptions() []ContextOption {
	if s == nil || s.LastSocialActivity == nil {
		return nil
	}
	return []ContextOption{WithLastSocialActivity(*s.LastSocialActivity)}
}
