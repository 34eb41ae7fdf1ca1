// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "CardMatch-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "cardmatch.log")
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.maxage", 28)

	viper.SetDefault("matcher.canonicalwidth", 500)
	viper.SetDefault("matcher.canonicalheight", 700)
	viper.SetDefault("matcher.edgeinset", 0.05)
	viper.SetDefault("matcher.embedsize", 224)
	viper.SetDefault("matcher.artregion.left", 0.07)
	viper.SetDefault("matcher.artregion.right", 0.93)
	viper.SetDefault("matcher.artregion.top", 0.12)
	viper.SetDefault("matcher.artregion.bottom", 0.59)
	viper.SetDefault("matcher.topk", 5)
	viper.SetDefault("matcher.model.enabled", false)
	viper.SetDefault("matcher.model.modelpath", "")
	viper.SetDefault("matcher.model.threads", 0)
	viper.SetDefault("matcher.model.usexnnpack", false)

	viper.SetDefault("ocr.enabled", true)
	viper.SetDefault("ocr.language", "eng")
	viper.SetDefault("ocr.tessdatapath", "")
	viper.SetDefault("ocr.topn", 3)
	viper.SetDefault("ocr.cachettl", 10)
	viper.SetDefault("ocr.minimumconf", 30.0)

	viper.SetDefault("fusion.visualweight", 0.7)
	viper.SetDefault("fusion.ocrweight", 0.3)
	viper.SetDefault("fusion.excellent", 0.80)
	viper.SetDefault("fusion.good", 0.70)
	viper.SetDefault("fusion.fair", 0.55)
	viper.SetDefault("fusion.margin", 0.05)
	viper.SetDefault("fusion.ambiguityepsilon", 0.03)
	viper.SetDefault("fusion.autoconfirm", 0.80)

	viper.SetDefault("realtime.source", "frames")
	viper.SetDefault("realtime.interval", 750)
	viper.SetDefault("realtime.window", 2.5)
	viper.SetDefault("realtime.mindetections", 2)
	viper.SetDefault("realtime.minconfidence", 0.60)
	viper.SetDefault("realtime.cooldown", 3.0)
	viper.SetDefault("realtime.frametimeout", 5.0)
	viper.SetDefault("realtime.quality.enabled", true)
	viper.SetDefault("realtime.quality.minbrightness", 0.15)
	viper.SetDefault("realtime.quality.maxbrightness", 0.90)
	viper.SetDefault("realtime.quality.minsharpness", 25.0)

	viper.SetDefault("catalog.sqlite.enabled", true)
	viper.SetDefault("catalog.sqlite.path", "catalog.db")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", "0.0.0.0:8090")
}
