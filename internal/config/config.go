package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL"`

	Order    Order    `envPrefix:"ORDER_"`
	Shipping Shipping `envPrefix:"SHIPPING_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Order struct {
	NumberPrefix string `env:"NUMBER_PREFIX" envDefault:"MB-"`
}

// Shipping pricing is injected into the checkout service so the rules stay
// deterministic under test, never read from mutable process state.
type Shipping struct {
	FreeThreshold float64 `env:"FREE_THRESHOLD" envDefault:"5000"`
	FlatRate      float64 `env:"FLAT_RATE" envDefault:"200"`
}
