// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package ilblib provides the data structures needed to deploy Azure internal
// load balancers from declarative library files.
// A library contains network contexts (virtual network and subnet bindings),
// load balancer definitions (frontend, backend pool, health probes and
// load balancing rules), and NIC bindings that fan network interfaces into
// the backend pool.
//
// Internally the Azure SDK is used to store the resources in memory.
// The deployment package transforms this data into armnetwork types and can
// emit the SDK calls needed to create or update them.
package ilblib
