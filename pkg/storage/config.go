package storage

import "time"

// Config selects and parameterizes the active storage provider. It is the
// sole configuration surface into the storage subsystem.
type Config struct {
	// Type selects the provider kind.
	Type Kind `json:"type" yaml:"type"`
	// Path is the directory used by the local provider. Required when
	// Type is KindLocal.
	Path string `json:"localPath,omitempty" yaml:"local_path,omitempty"`
	// WebDAV parameterizes the WebDAV provider. Required when Type is
	// KindWebDAV.
	WebDAV *WebDAVConfig `json:"webdavConfig,omitempty" yaml:"webdav,omitempty"`
	// DataDir locates the embedded key-value database backing the kv
	// provider. Empty means a notevault directory under the user config dir.
	DataDir string `json:"dataDir,omitempty" yaml:"data_dir,omitempty"`
}

// WebDAVConfig carries the remote server coordinates and Basic credentials.
type WebDAVConfig struct {
	URL      string     `json:"url" yaml:"url"`
	Username string     `json:"username" yaml:"username"`
	Password string     `json:"password" yaml:"password"`
	Enabled  bool       `json:"enabled" yaml:"enabled"`
	LastSync *time.Time `json:"lastSync,omitempty" yaml:"last_sync,omitempty"`
}

// Validate checks the config shape invariants: a local config needs a path,
// a webdav config needs server coordinates. Violations are fatal
// configuration errors, reported before any provider is constructed.
func (c Config) Validate() error {
	if !c.Type.Valid() {
		return &ConfigError{Field: "type", Reason: "unrecognized storage type " + string(c.Type)}
	}
	switch c.Type {
	case KindLocal:
		if c.Path == "" {
			return &ConfigError{Field: "localPath", Reason: "required for local storage"}
		}
	case KindWebDAV:
		if c.WebDAV == nil {
			return &ConfigError{Field: "webdavConfig", Reason: "required for webdav storage"}
		}
		if c.WebDAV.URL == "" {
			return &ConfigError{Field: "webdavConfig.url", Reason: "required for webdav storage"}
		}
	}
	return nil
}
