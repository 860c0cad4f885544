package postgres

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users        *UserRepository
	Credentials  *CredentialRepository
	OneTimeCodes *OneTimeCodeRepository
	Roles        *RoleRepository
	Transactor   *Transactor
}

// NewRepositories wires all repositories backed by the provided database handle.
func NewRepositories(db pgDatabase) *Repositories {
	return &Repositories{
		Users:        NewUserRepository(db),
		Credentials:  NewCredentialRepository(db),
		OneTimeCodes: NewOneTimeCodeRepository(db),
		Roles:        NewRoleRepository(db),
		Transactor:   NewTransactor(db),
	}
}
