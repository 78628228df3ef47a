package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config agrupa a configuração do serviço de assinatura (leitura via Viper
// de variáveis de ambiente e, opcionalmente, de arquivo).
type Config struct {
	App  AppConfig
	HTTP HTTPConfig
	Log  LogConfig
	NFSE NFSEConfig
}

// AppConfig configuração geral.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// HTTPConfig configuração do servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devolve o endereço de escuta (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig nível de log.
type LogConfig struct {
	Level string
}

// NFSEConfig configuração do motor de assinatura NFS-e.
type NFSEConfig struct {
	CertPath      string // caminho do contêiner .p12/.pfx (certificado A1)
	CertPassword  string // senha do contêiner
	RecheckExpiry bool   // re-valida o NotAfter antes de cada assinatura
}

// Load lê a configuração de variáveis de ambiente (e opcionalmente de
// arquivo .env). As env vars têm prioridade: APP_ENV, HTTP_PORT,
// NFSE_CERT_PATH, NFSE_CERT_PASSWORD, NFSE_RECHECK_EXPIRY, LOG_LEVEL.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: arquivo de configuração (.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos erro se não existir

	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "nfse-betha"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
		NFSE: NFSEConfig{
			CertPath:      getString(v, "NFSE_CERT_PATH", ""),
			CertPassword:  getString(v, "NFSE_CERT_PASSWORD", ""),
			RecheckExpiry: getBool(v, "NFSE_RECHECK_EXPIRY", false),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		return v.GetInt(key)
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
