// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package ilblib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/ilblib/processor"
)

const testNicId = "/subscriptions/22222222-2222-2222-2222-222222222222/resourceGroups/rg-other/providers/Microsoft.Network/networkInterfaces/nic-vm0"

func TestNewNicBindingFromNicId(t *testing.T) {
	t.Parallel()
	nb, err := newNicBinding(&processor.LibNicBinding{
		Name:         "vm0",
		LoadBalancer: "web",
		NicId:        testNicId,
	})
	require.NoError(t, err)

	// subscription and resource group come from the resource ID
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", nb.SubscriptionId)
	assert.Equal(t, "rg-other", nb.ResourceGroup)
	assert.Equal(t, DefaultIpConfigurationName, nb.IpConfigurationName)

	nicName, err := nb.NicName()
	require.NoError(t, err)
	assert.Equal(t, "nic-vm0", nicName)
	assert.Equal(t, testNicId+"/ipConfigurations/ipconfig1", nb.IpConfigurationId())
}

func TestNewNicBindingComposed(t *testing.T) {
	t.Parallel()
	nb, err := newNicBinding(&processor.LibNicBinding{
		Name:            "test1226",
		LoadBalancer:    "web",
		SubscriptionId:  "00000000-0000-0000-0000-000000000000",
		ResourceGroup:   "rg-web",
		IpConfiguration: "ipconfig2",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"/subscriptions/00000000-0000-0000-0000-000000000000/resourceGroups/rg-web/providers/Microsoft.Network/networkInterfaces/test1226",
		nb.NicId,
	)
	assert.Equal(t, "ipconfig2", nb.IpConfigurationName)
}

func TestNewNicBindingValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing load balancer", func(t *testing.T) {
		t.Parallel()
		_, err := newNicBinding(&processor.LibNicBinding{Name: "vm0", NicId: testNicId})
		assert.ErrorContains(t, err, "has no load_balancer")
	})

	t.Run("missing location info", func(t *testing.T) {
		t.Parallel()
		_, err := newNicBinding(&processor.LibNicBinding{Name: "vm0", LoadBalancer: "web"})
		assert.ErrorContains(t, err, "must declare either nic_id or subscription_id and resource_group")
	})

	t.Run("nic_id is not a network interface", func(t *testing.T) {
		t.Parallel()
		_, err := newNicBinding(&processor.LibNicBinding{
			Name:         "vm0",
			LoadBalancer: "web",
			NicId:        "/subscriptions/22222222-2222-2222-2222-222222222222/resourceGroups/rg-other/providers/Microsoft.Network/virtualNetworks/vnet",
		})
		assert.ErrorContains(t, err, "not a network interface")
	})
}
