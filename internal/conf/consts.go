// conf/consts.go hard coded constants
package conf

const (
	AppName        = "litterscan"
	ConfigFileName = "config.yaml"

	// DefaultStoreCapacity bounds the number of retained detection records
	DefaultStoreCapacity = 100

	StoreBackendJSON   = "json"
	StoreBackendSQLite = "sqlite"
	StoreBackendMySQL  = "mysql"

	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)
