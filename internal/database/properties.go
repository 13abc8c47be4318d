package database

import (
	"strconv"

	"github.com/GoogleCloudPlatform/db-connector-adapter/internal/config"
)

// Connection property names.
const (
	PropUser            = "user"
	PropPassword        = "password"
	PropRowPrefetch     = "defaultRowPrefetch"
	PropIncludeSynonyms = "includeSynonyms"
	PropDatabase        = "database"
	PropPrivateIP       = "privateIP"
)

// Properties are the driver connection properties that travel with a split.
type Properties map[string]string

// PropertiesFromConfig builds the properties every connection carries.
func PropertiesFromConfig(cfg config.Config) Properties {
	fetchSize := cfg.FetchSize
	if fetchSize <= 0 {
		fetchSize = config.DefaultFetchSize
	}
	p := Properties{
		PropUser:            cfg.ConnectionUser,
		PropPassword:        cfg.ConnectionPassword,
		PropRowPrefetch:     strconv.Itoa(fetchSize),
		PropIncludeSynonyms: strconv.FormatBool(cfg.IncludeSynonyms),
	}
	if cfg.Database != "" {
		p[PropDatabase] = cfg.Database
	}
	if cfg.UsePrivateIP {
		p[PropPrivateIP] = "true"
	}
	return p
}

func (p Properties) User() string { return p[PropUser] }
func (p Properties) Password() string { return p[PropPassword] }
func (p Properties) Database() string { return p[PropDatabase] }

// FetchSize returns the row prefetch hint, falling back to the default when
// unset or malformed. Only go-ora has a row prefetch setting (PREFETCH_ROWS).
// The PostgreSQL, MySQL and SQL Server drivers stream rows as the server
// sends them, so their connection builders leave the hint out.
func (p Properties) FetchSize() int {
	n, err := strconv.Atoi(p[PropRowPrefetch])
	if err != nil || n <= 0 {
		return config.DefaultFetchSize
	}
	return n
}

func (p Properties) IncludeSynonyms() bool {
	return p.flag(PropIncludeSynonyms)
}

func (p Properties) UsePrivateIP() bool {
	return p.flag(PropPrivateIP)
}

func (p Properties) flag(key string) bool {
	b, err := strconv.ParseBool(p[key])
	return err == nil && b
}

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
