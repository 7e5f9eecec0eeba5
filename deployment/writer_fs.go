// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package deployment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DeploymentWriter writes a Deployment to a target location.
// Implementations should mirror the deployment layout on the target: one
// directory per load balancer containing the generated resource documents.
type DeploymentWriter interface {
	// Write exports the deployment to outDir. Each load balancer becomes a
	// directory containing the load balancer document, the managed virtual
	// network document (when present), the NIC association documents and the
	// outputs document, each as a separate JSON file.
	Write(ctx context.Context, d *Deployment, outDir string) error
}

// FSWriter writes a Deployment to the local filesystem.
type FSWriter struct{}

// NewFSWriter creates a new filesystem writer.
func NewFSWriter() *FSWriter { return &FSWriter{} }

const (
	fileSuffixLoadBalancer   = ".loadBalancer.json"
	fileSuffixVirtualNetwork = ".virtualNetwork.json"
	fileSuffixNicAssociation = ".nicAssociation.json"
	fileNameOutputs          = "outputs.json"
)

const (
	dirPerm          = 0o755
	filePerm         = 0o644
	controlCharLimit = 0x20
)

// Write implements DeploymentWriter.
func (w *FSWriter) Write(ctx context.Context, d *Deployment, outDir string) error {
	if d == nil {
		return errors.New("fswriter.write: deployment is nil")
	}
	if strings.TrimSpace(outDir) == "" {
		return errors.New("fswriter.write: outDir is empty")
	}
	if err := os.MkdirAll(outDir, dirPerm); err != nil {
		return fmt.Errorf("fswriter.write: creating outDir: %w", err)
	}

	for _, name := range d.ListLoadBalancers() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lbd := d.GetLoadBalancer(name)
		if lbd == nil {
			continue
		}
		if err := w.writeLoadBalancer(lbd, outDir); err != nil {
			return err
		}
	}
	return nil
}

func (w *FSWriter) writeLoadBalancer(lbd *LoadBalancerDeployment, outDir string) error {
	if err := checkFileName(lbd.Name()); err != nil {
		return err
	}
	dir := filepath.Join(outDir, lbd.Name())
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("fswriter.write: creating directory for load balancer %s: %w", lbd.Name(), err)
	}

	if err := writeJSONFile(filepath.Join(dir, lbd.Name()+fileSuffixLoadBalancer), lbd.LoadBalancer()); err != nil {
		return err
	}

	if vnet := lbd.VirtualNetwork(); vnet != nil {
		nc := lbd.networkContext
		if err := checkFileName(nc.VirtualNetworkName); err != nil {
			return err
		}
		if err := writeJSONFile(filepath.Join(dir, nc.VirtualNetworkName+fileSuffixVirtualNetwork), vnet); err != nil {
			return err
		}
	}

	for _, assoc := range lbd.NicAssociations() {
		if err := checkFileName(assoc.NicName); err != nil {
			return err
		}
		if err := writeJSONFile(filepath.Join(dir, assoc.NicName+fileSuffixNicAssociation), assoc); err != nil {
			return err
		}
	}

	return writeJSONFile(filepath.Join(dir, fileNameOutputs), lbd.Outputs())
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("fswriter.write: marshaling %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("fswriter.write: writing %s: %w", path, err)
	}
	return nil
}

// checkFileName rejects names that would escape the output directory or
// produce unreadable file names.
func checkFileName(name string) error {
	if name == "" {
		return errors.New("fswriter.write: name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("fswriter.write: name %q must not contain path separators", name)
	}
	for _, r := range name {
		if r < controlCharLimit {
			return fmt.Errorf("fswriter.write: name %q contains control characters", name)
		}
	}
	return nil
}
