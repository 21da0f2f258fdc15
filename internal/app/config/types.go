package config

type (
	InternalConfig struct {
		App   App
		FHIR  FHIR
		JWT   JWT
		Study Study
	}

	DriverConfig struct {
		Logger Logger
	}

	App struct {
		Env      string
		Version  string
		Timezone string
	}

	// FHIR holds the remote server settings. AuthToken/AuthPrefix configure a
	// static Authorization header; a JWT supplied per call takes precedence.
	FHIR struct {
		BaseUrl    string
		AuthToken  string
		AuthPrefix string
	}

	JWT struct {
		Secret string
		Prefix string
	}

	Logger struct {
		Level               string
		OutputFileName      string
		OutputErrorFileName string
	}

	// Study carries program-level settings that are not derivable from FHIR
	// resources themselves.
	Study struct {
		TestEmailPatterns []string
	}
)
