// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package deployment builds the desired-state resource graph for internal
// load balancers from validated ilblib specs: the load balancer itself with
// its frontend, backend pool, probes and rules, the managed virtual network
// when the network context is not an existing one, and the NIC associations
// that fan network interfaces into the backend pool.
//
// The graph can be exported to files, compared against the live Azure state
// (Plan), or applied through the armnetwork clients (Apply).
package deployment
