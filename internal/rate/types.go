package rate

// Declaration names the vendor API whose responses are observed.
type Declaration struct {
	provider string
}

// Provider starts a declaration for the named vendor.
func Provider(name string) Declaration {
	return Declaration{provider: name}
}

func (d Declaration) ProviderName() string {
	return d.provider
}

// Throttled reports whether a status code is a vendor throttle signal.
func Throttled(status int) bool {
	return status == 429 || status == 503
}
