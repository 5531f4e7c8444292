package providers

const (
	// Identifier for iplocate.io.
	NameIPLocate = "iplocate"

	// Identifier for ipinfo.io.
	NameIPInfo = "ipinfo"

	// Identifier for MaxMind GeoLite2/GeoIP2 City databases.
	NameMaxmind = "maxmind"
)
