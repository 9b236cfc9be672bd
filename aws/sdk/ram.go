package sdk

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ram"
	ramTypes "github.com/aws/aws-sdk-go-v2/service/ram/types"
)

type RAMClientInterface interface {
	GetResourceShares(ctx context.Context, params *ram.GetResourceSharesInput, optFns ...func(*ram.Options)) (*ram.GetResourceSharesOutput, error)
	GetResourceShareAssociations(ctx context.Context, params *ram.GetResourceShareAssociationsInput, optFns ...func(*ram.Options)) (*ram.GetResourceShareAssociationsOutput, error)
}

// RAMResourceShares lists the resource shares owned by the calling account.
func RAMResourceShares(client RAMClientInterface, region string) ([]ramTypes.ResourceShare, error) {
	var PaginationControl *string
	var shares []ramTypes.ResourceShare
	for {
		GetResourceShares, err := client.GetResourceShares(
			context.TODO(),
			&ram.GetResourceSharesInput{
				ResourceOwner: ramTypes.ResourceOwnerSelf,
				NextToken:     PaginationControl,
			},
			func(o *ram.Options) {
				o.Region = region
			},
		)
		if err != nil {
			return shares, err
		}

		shares = append(shares, GetResourceShares.ResourceShares...)

		//pagination
		if GetResourceShares.NextToken == nil {
			break
		}
		PaginationControl = GetResourceShares.NextToken
	}
	return shares, nil
}

// RAMResourceShareAssociations lists the RESOURCE or PRINCIPAL associations
// of the given resource shares.
func RAMResourceShareAssociations(client RAMClientInterface, region string, associationType ramTypes.ResourceShareAssociationType, resourceShareArns []string) ([]ramTypes.ResourceShareAssociation, error) {
	var PaginationControl *string
	var associations []ramTypes.ResourceShareAssociation
	for {
		GetAssociations, err := client.GetResourceShareAssociations(
			context.TODO(),
			&ram.GetResourceShareAssociationsInput{
				AssociationType:   associationType,
				ResourceShareArns: resourceShareArns,
				NextToken:         PaginationControl,
			},
			func(o *ram.Options) {
				o.Region = region
			},
		)
		if err != nil {
			return associations, err
		}

		associations = append(associations, GetAssociations.ResourceShareAssociations...)

		//pagination
		if GetAssociations.NextToken == nil {
			break
		}
		PaginationControl = GetAssociations.NextToken
	}
	return associations, nil
}
