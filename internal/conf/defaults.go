// conf/defaults.go default configuration values
package conf

import (
	"github.com/spf13/viper"
)

// setDefaultConfig sets the default values for the configuration parameters
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "bird-catalog")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "bird-catalog.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.bodylimit", "1M")
	viper.SetDefault("server.debug", false)
	viper.SetDefault("server.cors.origins", []string{"http://localhost:5173"})

	viper.SetDefault("catalog.staticbaseurl", "http://localhost:8000/static")
	viper.SetDefault("catalog.staticdir", "static")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "birds.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "birdcatalog")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
	viper.SetDefault("output.mysql.database", "birdcatalog")
}
