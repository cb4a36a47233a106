package domain

// Deployment is the set of addresses derived from one program identity.
// There is exactly one charity record and one treasury per deployment.
type Deployment struct {
	Program  Identity
	Charity  Identity
	Treasury Identity
}

// NewDeployment derives the record and treasury addresses of program.
func NewDeployment(program Identity) Deployment {
	return Deployment{
		Program:  program,
		Charity:  DeriveAddress(program, SeedCharity),
		Treasury: DeriveAddress(program, SeedTreasury),
	}
}
