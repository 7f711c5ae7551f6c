package config

const (
	EnvPrefix = "STITCHLANE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STITCHLANE_DB_DSN"
	EnvDBHost = "STITCHLANE_DB_HOST"
	EnvDBUser = "STITCHLANE_DB_USER"
	EnvDBName = "STITCHLANE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
