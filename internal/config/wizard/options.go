package wizard

import "github.com/charmbracelet/huh"

// ServerTypeOptions lists the shared-vCPU plans that make sense for a
// small probe cluster.
var ServerTypeOptions = []huh.Option[string]{
	huh.NewOption("CPX11 (2 vCPU, 2 GB)", "cpx11"),
	huh.NewOption("CPX21 (3 vCPU, 4 GB)", "cpx21"),
	huh.NewOption("CPX31 (4 vCPU, 8 GB)", "cpx31"),
	huh.NewOption("CX22 (2 vCPU, 4 GB, EU only)", "cx22"),
}

// ImageOptions lists supported base images.
var ImageOptions = []huh.Option[string]{
	huh.NewOption("Debian 12", "debian-12"),
	huh.NewOption("Debian 13", "debian-13"),
	huh.NewOption("Ubuntu 24.04", "ubuntu-24.04"),
}

// RegionOptions lists the selectable datacenter locations.
var RegionOptions = []huh.Option[string]{
	huh.NewOption("Ashburn, VA (ash)", "ash"),
	huh.NewOption("Hillsboro, OR (hil)", "hil"),
	huh.NewOption("Falkenstein, DE (fsn1)", "fsn1"),
	huh.NewOption("Nuremberg, DE (nbg1)", "nbg1"),
	huh.NewOption("Helsinki, FI (hel1)", "hel1"),
	huh.NewOption("Singapore (sin)", "sin"),
}
