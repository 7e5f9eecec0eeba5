// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package processor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// These are the file suffixes for the supported definition types.
const (
	networkContextSuffix = ".+\\.ilb_network_context\\.(?i:json|yaml|yml)$"
	loadBalancerSuffix   = ".+\\.ilb_load_balancer\\.(?i:json|yaml|yml)$"
	nicBindingSuffix     = ".+\\.ilb_nic_binding\\.(?i:json|yaml|yml)$"
)

// ilbLibraryMetadataFile is the well-known metadata file name at the root of a library.
const ilbLibraryMetadataFile = "ilb_library_metadata.json"

var supportedFileTypes = []string{".json", ".yaml", ".yml"}

var networkContextRegex = regexp.MustCompile(networkContextSuffix)
var loadBalancerRegex = regexp.MustCompile(loadBalancerSuffix)
var nicBindingRegex = regexp.MustCompile(nicBindingSuffix)

// Result is the structure that gets built by scanning the library files.
type Result struct {
	NetworkContexts map[string]*LibNetworkContext
	LoadBalancers   map[string]*LibLoadBalancer
	NicBindings     map[string]*LibNicBinding
}

// processFunc is the function signature that is used to process different types of lib file.
type processFunc func(result *Result, data unmarshaler) error

// ProcessorClient is the client that is used to process the library files.
type ProcessorClient struct {
	fs fs.FS
}

// NewProcessorClient creates a new ProcessorClient with the provided filesystem.
func NewProcessorClient(fs fs.FS) *ProcessorClient {
	return &ProcessorClient{
		fs: fs,
	}
}

// Metadata returns the metadata of the library.
// If the library has no metadata file an empty LibMetadata is returned.
func (client *ProcessorClient) Metadata() (*LibMetadata, error) {
	metadataFile, err := client.fs.Open(ilbLibraryMetadataFile)

	var pe *fs.PathError
	if errors.As(err, &pe) {
		return &LibMetadata{
			Name:         "",
			DisplayName:  "",
			Description:  "",
			Dependencies: make([]LibMetadataDependency, 0),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ProcessorClient.Metadata: error opening metadata file: %w", err)
	}
	defer metadataFile.Close() // nolint: errcheck

	data, err := io.ReadAll(metadataFile)
	if err != nil {
		return nil, fmt.Errorf("ProcessorClient.Metadata: error reading metadata file: %w", err)
	}

	unmar := newUnmarshaler(data, ".json")
	metadata := new(LibMetadata)
	if err := unmar.unmarshal(metadata); err != nil {
		return nil, fmt.Errorf("ProcessorClient.Metadata: error unmarshaling metadata file: %w", err)
	}

	for _, dep := range metadata.Dependencies {
		if err := dep.Validate(); err != nil {
			return nil, fmt.Errorf("ProcessorClient.Metadata: %w", err)
		}
	}

	return metadata, nil
}

// Process walks the library filesystem and processes the supported file types.
func (client *ProcessorClient) Process(res *Result) error {
	res.NetworkContexts = make(map[string]*LibNetworkContext)
	res.LoadBalancers = make(map[string]*LibLoadBalancer)
	res.NicBindings = make(map[string]*LibNicBinding)

	// Walk the lib FS and process files
	if err := fs.WalkDir(client.fs, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("ProcessorClient.Process: error walking directory %s: %w", path, err)
		}
		// Skip directories
		if d.IsDir() {
			return nil
		}
		// Skip files that are not json or yaml
		if !slices.Contains(supportedFileTypes, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		file, err := client.fs.Open(path)
		if err != nil {
			return fmt.Errorf("ProcessorClient.Process: error opening file %s: %w", path, err)
		}
		return classifyLibFile(res, file, d.Name())
	}); err != nil {
		return err
	}
	return nil
}

// classifyLibFile identifies the supplied file and calls the appropriate processFunc.
func classifyLibFile(res *Result, file fs.File, name string) error {
	err := error(nil)

	// process by file type
	switch n := strings.ToLower(name); {
	// if the file is a network context
	case networkContextRegex.MatchString(n):
		err = readAndProcessFile(res, file, processNetworkContext)

	// if the file is a load balancer definition
	case loadBalancerRegex.MatchString(n):
		err = readAndProcessFile(res, file, processLoadBalancer)

	// if the file is a NIC binding
	case nicBindingRegex.MatchString(n):
		err = readAndProcessFile(res, file, processNicBinding)
	}

	if err != nil {
		err = fmt.Errorf("classifyLibFile: error processing file: %w", err)
	}

	return err
}

// processNetworkContext is a processFunc that reads the network_context
// bytes, processes, then adds the created LibNetworkContext to the result.
func processNetworkContext(res *Result, unmar unmarshaler) error {
	nc := new(LibNetworkContext)
	if err := unmar.unmarshal(nc); err != nil {
		return fmt.Errorf("processNetworkContext: error unmarshaling: %w", err)
	}
	if nc.Name == "" {
		return errors.New("processNetworkContext: network context name is empty")
	}
	if _, exists := res.NetworkContexts[nc.Name]; exists {
		return fmt.Errorf("processNetworkContext: network context with name `%s` already exists", nc.Name)
	}
	res.NetworkContexts[nc.Name] = nc
	return nil
}

// processLoadBalancer is a processFunc that reads the load_balancer
// bytes, processes, then adds the created LibLoadBalancer to the result.
func processLoadBalancer(res *Result, unmar unmarshaler) error {
	lb := new(LibLoadBalancer)
	if err := unmar.unmarshal(lb); err != nil {
		return fmt.Errorf("processLoadBalancer: error unmarshaling: %w", err)
	}
	if lb.Name == "" {
		return errors.New("processLoadBalancer: load balancer name is empty")
	}
	if _, exists := res.LoadBalancers[lb.Name]; exists {
		return fmt.Errorf("processLoadBalancer: load balancer with name `%s` already exists", lb.Name)
	}
	res.LoadBalancers[lb.Name] = lb
	return nil
}

// processNicBinding is a processFunc that reads the nic_binding
// bytes, processes, then adds the created LibNicBinding to the result.
func processNicBinding(res *Result, unmar unmarshaler) error {
	nb := new(LibNicBinding)
	if err := unmar.unmarshal(nb); err != nil {
		return fmt.Errorf("processNicBinding: error unmarshaling: %w", err)
	}
	if nb.Name == "" {
		return errors.New("processNicBinding: NIC binding name is empty")
	}
	if _, exists := res.NicBindings[nb.Name]; exists {
		return fmt.Errorf("processNicBinding: NIC binding with name `%s` already exists", nb.Name)
	}
	res.NicBindings[nb.Name] = nb
	return nil
}

// readAndProcessFile reads the file bytes at the supplied path and processes it using the supplied processFunc.
func readAndProcessFile(res *Result, file fs.File, processFn processFunc) error {
	s, err := file.Stat()
	if err != nil {
		return err
	}
	data := make([]byte, s.Size())
	defer file.Close() // nolint: errcheck
	if _, err := file.Read(data); err != nil {
		return err
	}

	ext := filepath.Ext(s.Name())
	// create a new unmarshaler
	unmar := newUnmarshaler(data, ext)

	// pass the data to the supplied process function
	if err := processFn(res, unmar); err != nil {
		return err
	}
	return nil
}
