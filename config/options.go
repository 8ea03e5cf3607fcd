package config

const (
	defaultLogFile           = "anx-sync.log"
	defaultLogLevel          = "info"
	defaultLogFileMaxSize    = 20
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 28
	defaultLogCompress       = false
	defaultDeviceRoot        = ""
	defaultDatabaseName      = "database7.db"
	defaultMaxFilenameLen    = 90
	defaultHashAlgorithm     = "md5"
)

// defaultSupportedFormats matches what ANX readers open uncomplainingly.
var defaultSupportedFormats = []string{"epub", "mobi", "azw3", "fb2", "txt", "pdf"}

var Opts *Options

// Why use mapstructure instead of json, if use json as field tags, it can't recgnize the field, since the viper use mapstructure.
// see: https://pkg.go.dev/github.com/mitchellh/mapstructure#hdr-Field_Tags
type Options struct {
	// LogFile is the file to write logs to
	LogFile string `mapstructure:"log_file"`
	// LogLevel is the level of logging to show
	LogLevel string `mapstructure:"log_level"`
	// LogFileMaxSize is the maximum size of the log file before it is rotated
	LogFileMaxSize int `mapstructure:"log_file_max_size"`
	// LogFileMaxBackups is the maximum number of log files to keep
	LogFileMaxBackups int `mapstructure:"log_file_max_backups"`
	// LogFileMaxAge is the maximum number of days to keep a log file
	LogFileMaxAge int `mapstructure:"log_file_max_age"`
	// LogCompress is whether or not to compress the log files
	LogCompress bool `mapstructure:"log_compress"`
	// DeviceRoot is the root of the device tree, the directory holding the
	// database file and the data/file and data/cover subdirectories
	DeviceRoot string `mapstructure:"device_root"`
	// DatabaseName is the name of the sqlite database file inside DeviceRoot
	DatabaseName string `mapstructure:"database_name"`
	// MaxFilenameLen bounds the base portion of generated file names
	MaxFilenameLen int `mapstructure:"max_filename_len"`
	// HashAlgorithm is the content hash used for dedup, md5 or sha256
	HashAlgorithm string `mapstructure:"hash_algorithm"`
	// SupportedFormats is the book formats accepted for ingest
	SupportedFormats []string `mapstructure:"supported_formats"`
}

func GetDefaultOptions() *Options {
	Opts = &Options{
		LogFile:           defaultLogFile,
		LogLevel:          defaultLogLevel,
		LogFileMaxSize:    defaultLogFileMaxSize,
		LogFileMaxBackups: defaultLogFileMaxBackups,
		LogFileMaxAge:     defaultLogFileMaxAge,
		LogCompress:       defaultLogCompress,
		DeviceRoot:        defaultDeviceRoot,
		DatabaseName:      defaultDatabaseName,
		MaxFilenameLen:    defaultMaxFilenameLen,
		HashAlgorithm:     defaultHashAlgorithm,
		SupportedFormats:  defaultSupportedFormats,
	}
	return Opts
}
