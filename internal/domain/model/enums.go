package model

// Environment is the deployment stage a credential belongs to.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

// Valid reports whether e is one of the known environments.
func (e Environment) Valid() bool {
	switch e {
	case EnvironmentDevelopment, EnvironmentStaging, EnvironmentProduction:
		return true
	}
	return false
}

// ServiceType classifies what kind of system a credential unlocks.
type ServiceType string

const (
	ServiceTypeDatabase ServiceType = "database"
	ServiceTypeAPI      ServiceType = "api"
	ServiceTypeCloud    ServiceType = "cloud"
	ServiceTypeEnv      ServiceType = "env"
	ServiceTypeOther    ServiceType = "other"
)

// Valid reports whether s is one of the known service types.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceTypeDatabase, ServiceTypeAPI, ServiceTypeCloud, ServiceTypeEnv, ServiceTypeOther:
		return true
	}
	return false
}

// DefaultRole is assigned to users who register without an explicit role.
const DefaultRole = "Developer"
