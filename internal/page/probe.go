package page

// Probe carries measurements only a live browser can take
type Probe struct {
	Contrast       []ContrastSample `json:"contrast"`
	ContrastMobile []ContrastSample `json:"contrast_mobile,omitempty"`
	Targets        []TargetSample   `json:"targets"`
	Focus          []FocusSample    `json:"focus"`
	OverflowX      *bool            `json:"overflow_x,omitempty"` // Horizontal scroll at the mobile width; nil when not measured
	ViewportWidth  int              `json:"viewport_width,omitempty"`
}

// ContrastSample is the computed contrast of one text node's element
type ContrastSample struct {
	Selector string  `json:"selector"`
	Ratio    float64 `json:"ratio"`
	Large    bool    `json:"large"` // >= 18pt, or >= 14pt bold
}

// Required returns the AA minimum ratio for the sample
func (s ContrastSample) Required() float64 {
	if s.Large {
		return 3.0
	}
	return 4.5
}

// TargetSample is the rendered size of one interactive element
type TargetSample struct {
	Selector string  `json:"selector"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Inline   bool    `json:"inline"` // Link inside a sentence, exempt from target size
}

// FocusSample records whether focusing an element changed its appearance
type FocusSample struct {
	Selector string `json:"selector"`
	Visible  bool   `json:"visible"`
}
