package config

const (
	EnvPrefix = "LEDRENTAL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "LEDRENTAL_DB_DSN"
	EnvDBHost = "LEDRENTAL_DB_HOST"
	EnvDBUser = "LEDRENTAL_DB_USER"
	EnvDBName = "LEDRENTAL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
