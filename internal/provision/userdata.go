package provision

import (
	"fmt"
	"strings"

	"github.com/outpost-sh/outpost/internal/state"
	"github.com/outpost-sh/outpost/internal/util/naming"
)

// userData renders the cloud-init document passed to the create call.
// It sets the node's hostname to its FQDN so the instance identifies
// itself correctly before DNS is configured.
func userData(node *state.Node, st *state.State) string {
	var b strings.Builder
	b.WriteString("#cloud-config\n")
	fmt.Fprintf(&b, "hostname: %s\n", node.Code)
	fmt.Fprintf(&b, "fqdn: %s\n", naming.FQDN(node.Code, st.Inputs.HostSuffix))
	b.WriteString("preserve_hostname: false\n")
	b.WriteString("package_update: true\n")
	return b.String()
}
