package schemas

// -- Browser Persona Schemas --

// Persona encapsulates the properties presented to the questionnaire site for a consistent fingerprint.
type Persona struct {
	UserAgent string   `json:"userAgent" yaml:"user_agent" mapstructure:"user_agent"`
	Platform  string   `json:"platform" yaml:"platform" mapstructure:"platform"`
	Languages []string `json:"languages" yaml:"languages" mapstructure:"languages"`
	Width     int64    `json:"width" yaml:"width" mapstructure:"width"`
	Height    int64    `json:"height" yaml:"height" mapstructure:"height"`
	Timezone  string   `json:"timezoneId" yaml:"timezone" mapstructure:"timezone"`
	Locale    string   `json:"locale" yaml:"locale" mapstructure:"locale"`
}

// DefaultPersona is a French desktop Chrome profile, matching the audience of the questionnaires.
var DefaultPersona = Persona{
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	Platform:  "Win32",
	Languages: []string{"fr-FR", "fr"},
	Width:     1920,
	Height:    1080,
	Timezone:  "Europe/Paris",
	Locale:    "fr-FR",
}

// AcceptLanguage renders the persona languages as an Accept-Language header value.
func (p Persona) AcceptLanguage() string {
	switch len(p.Languages) {
	case 0:
		return ""
	case 1:
		return p.Languages[0]
	default:
		return p.Languages[0] + "," + p.Languages[1] + ";q=0.9"
	}
}
