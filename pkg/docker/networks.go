package docker

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types/network"
)

// EnsureNetwork creates the named bridge network with the given subnet
// if it does not exist yet. An existing network is left untouched, even
// when its subnet differs.
func (c *Client) EnsureNetwork(ctx context.Context, name, subnet string) error {
	networks, err := c.cli.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return fmt.Errorf("network check failed: %w", err)
	}

	for _, net := range networks {
		if net.Name == name {
			return nil
		}
	}

	opts := network.CreateOptions{Driver: "bridge"}
	if subnet != "" {
		opts.IPAM = &network.IPAM{
			Config: []network.IPAMConfig{{Subnet: subnet}},
		}
	}

	log.Info("Creating network", "name", name, "subnet", subnet)
	if _, err := c.cli.NetworkCreate(ctx, name, opts); err != nil {
		return fmt.Errorf("network creation failed: %w", err)
	}
	return nil
}
