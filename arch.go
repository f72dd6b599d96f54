package x86levels

// ArchitectureX86_64 is the machine name the kernel reports for x86-64.
const ArchitectureX86_64 = "x86_64"

// CurrentArchitecture returns the machine's hardware architecture name.
// It returns a *[PreconditionError] when the machine is not x86-64.
func CurrentArchitecture() (string, error) {
	arch, err := machine()
	if err != nil {
		return "", err
	}
	if err := CheckArchitecture(arch); err != nil {
		return arch, err
	}
	return arch, nil
}

// CheckArchitecture returns a *[PreconditionError] unless arch is x86_64.
func CheckArchitecture(arch string) error {
	if arch != ArchitectureX86_64 {
		return &PreconditionError{Architecture: arch, Want: ArchitectureX86_64}
	}
	return nil
}
