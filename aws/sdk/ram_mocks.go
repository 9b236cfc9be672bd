package sdk

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ram"
	ramTypes "github.com/aws/aws-sdk-go-v2/service/ram/types"
)

// MockedRAMClient owns one share exposing the workload VPC's subnets to an
// OU principal and a directly shared account.
type MockedRAMClient struct{}

func (m *MockedRAMClient) GetResourceShares(ctx context.Context, input *ram.GetResourceSharesInput, options ...func(*ram.Options)) (*ram.GetResourceSharesOutput, error) {
	return &ram.GetResourceSharesOutput{
		ResourceShares: []ramTypes.ResourceShare{
			{
				ResourceShareArn: aws.String("arn:aws:ram:us-east-1:444444444444:resource-share/share-0001"),
				Name:             aws.String("core-network-subnets"),
				OwningAccountId:  aws.String("444444444444"),
				Status:           ramTypes.ResourceShareStatusActive,
			},
		},
	}, nil
}

func (m *MockedRAMClient) GetResourceShareAssociations(ctx context.Context, input *ram.GetResourceShareAssociationsInput, options ...func(*ram.Options)) (*ram.GetResourceShareAssociationsOutput, error) {
	switch input.AssociationType {
	case ramTypes.ResourceShareAssociationTypeResource:
		return &ram.GetResourceShareAssociationsOutput{
			ResourceShareAssociations: []ramTypes.ResourceShareAssociation{
				{
					ResourceShareArn: aws.String("arn:aws:ram:us-east-1:444444444444:resource-share/share-0001"),
					AssociatedEntity: aws.String("arn:aws:ec2:us-east-1:444444444444:subnet/subnet-wl000001"),
					AssociationType:  ramTypes.ResourceShareAssociationTypeResource,
					Status:           ramTypes.ResourceShareAssociationStatusAssociated,
				},
				{
					ResourceShareArn: aws.String("arn:aws:ram:us-east-1:444444444444:resource-share/share-0001"),
					AssociatedEntity: aws.String("arn:aws:ec2:us-east-1:444444444444:subnet/subnet-wl000002"),
					AssociationType:  ramTypes.ResourceShareAssociationTypeResource,
					Status:           ramTypes.ResourceShareAssociationStatusAssociated,
				},
			},
		}, nil
	case ramTypes.ResourceShareAssociationTypePrincipal:
		return &ram.GetResourceShareAssociationsOutput{
			ResourceShareAssociations: []ramTypes.ResourceShareAssociation{
				{
					ResourceShareArn: aws.String("arn:aws:ram:us-east-1:444444444444:resource-share/share-0001"),
					AssociatedEntity: aws.String("arn:aws:organizations::111111111111:ou/o-exampleorgid/ou-0000-aaaaaaaa"),
					AssociationType:  ramTypes.ResourceShareAssociationTypePrincipal,
					Status:           ramTypes.ResourceShareAssociationStatusAssociated,
				},
				{
					ResourceShareArn: aws.String("arn:aws:ram:us-east-1:444444444444:resource-share/share-0001"),
					AssociatedEntity: aws.String("555555555555"),
					AssociationType:  ramTypes.ResourceShareAssociationTypePrincipal,
					Status:           ramTypes.ResourceShareAssociationStatusAssociated,
				},
			},
		}, nil
	}
	return &ram.GetResourceShareAssociationsOutput{}, nil
}
