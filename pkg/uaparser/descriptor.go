package uaparser

// Browser describes the user agent family and version.
type Browser struct {
	Family string `json:"family" yaml:"family"`
	Major  Field  `json:"major" yaml:"major"`
	Minor  Field  `json:"minor" yaml:"minor"`
	Patch  Field  `json:"patch" yaml:"patch"`
}

// OS describes the operating system family and version.
type OS struct {
	Family     string `json:"family" yaml:"family"`
	Major      Field  `json:"major" yaml:"major"`
	Minor      Field  `json:"minor" yaml:"minor"`
	Patch      Field  `json:"patch" yaml:"patch"`
	PatchMinor Field  `json:"patch_minor" yaml:"patch_minor"`
}

// Device describes the hardware family, brand and model.
type Device struct {
	Family string `json:"family" yaml:"family"`
	Brand  Field  `json:"brand" yaml:"brand"`
	Model  Field  `json:"model" yaml:"model"`
}

// Result is the aggregated classification of one User-Agent string.
type Result struct {
	String    string  `json:"string" yaml:"string"`
	UserAgent Browser `json:"ua" yaml:"ua"`
	OS        OS      `json:"os" yaml:"os"`
	Device    Device  `json:"device" yaml:"device"`
}

// ToVersionString joins the set version components with dots, stopping at
// the first absent one.
func (b Browser) ToVersionString() string {
	return joinVersion(b.Major, b.Minor, b.Patch)
}

// ToVersionString joins the set version components with dots, stopping at
// the first absent one.
func (o OS) ToVersionString() string {
	return joinVersion(o.Major, o.Minor, o.Patch, o.PatchMinor)
}

func joinVersion(parts ...Field) string {
	out := ""
	for i, p := range parts {
		v, ok := p.Value()
		if !ok {
			break
		}
		if i > 0 {
			out += "."
		}
		out += v
	}
	return out
}

func browserFrom(v []Field) Browser {
	return Browser{Family: v[0].String(), Major: v[1], Minor: v[2], Patch: v[3]}
}

func osFrom(v []Field) OS {
	return OS{Family: v[0].String(), Major: v[1], Minor: v[2], Patch: v[3], PatchMinor: v[4]}
}

func deviceFrom(v []Field) Device {
	return Device{Family: v[0].String(), Brand: v[1], Model: v[2]}
}
