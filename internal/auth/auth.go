// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package auth

import (
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// environmentToCloud maps environment names to their corresponding cloud configurations.
var environmentToCloud = map[string]cloud.Configuration{
	"public":       cloud.AzurePublic,
	"usgovernment": cloud.AzureGovernment,
	"china":        cloud.AzureChina,
}

// NewToken creates a new Entra token credential.
// It uses well-known ARM environment variables to configure the token
// acquisition: a client secret credential when ARM_CLIENT_SECRET is set,
// otherwise the azidentity default chain (environment, workload identity,
// managed identity, Azure CLI).
func NewToken() (azcore.TokenCredential, error) {
	cld := cloud.AzurePublic
	if env := getFirstSetEnvVar("ARM_ENVIRONMENT", "AZURE_ENVIRONMENT"); env != "" {
		if cfg, ok := environmentToCloud[env]; ok {
			cld = cfg
		}
	}

	tenantId := getFirstSetEnvVar("ARM_TENANT_ID", "AZURE_TENANT_ID")
	clientId := getFirstSetEnvVar("ARM_CLIENT_ID", "AZURE_CLIENT_ID")
	clientSecret := getFirstSetEnvVar("ARM_CLIENT_SECRET", "AZURE_CLIENT_SECRET")

	if tenantId != "" && clientId != "" && clientSecret != "" {
		return azidentity.NewClientSecretCredential(tenantId, clientId, clientSecret, &azidentity.ClientSecretCredentialOptions{
			ClientOptions: azcore.ClientOptions{
				Cloud: cld,
			},
		})
	}

	return azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		ClientOptions: azcore.ClientOptions{
			Cloud: cld,
		},
		TenantID: tenantId,
	})
}

func getFirstSetEnvVar(vars ...string) string {
	for _, v := range vars {
		if val := os.Getenv(v); val != "" {
			return val
		}
	}

	return ""
}
