package sdk

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/patrickmn/go-cache"
	"github.com/rightstart-io/rightstart/internal"
)

type EC2ClientInterface interface {
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
	DescribeVpcs(ctx context.Context, params *ec2.DescribeVpcsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error)
	DescribeSubnets(ctx context.Context, params *ec2.DescribeSubnetsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error)
	DescribeNetworkInterfaces(ctx context.Context, params *ec2.DescribeNetworkInterfacesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeNetworkInterfacesOutput, error)
	DescribeInternetGateways(ctx context.Context, params *ec2.DescribeInternetGatewaysInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInternetGatewaysOutput, error)
	DeleteSubnet(ctx context.Context, params *ec2.DeleteSubnetInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error)
	DetachInternetGateway(ctx context.Context, params *ec2.DetachInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.DetachInternetGatewayOutput, error)
	DeleteInternetGateway(ctx context.Context, params *ec2.DeleteInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.DeleteInternetGatewayOutput, error)
	DeleteVpc(ctx context.Context, params *ec2.DeleteVpcInput, optFns ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error)
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
}

// CachedEC2DescribeRegions returns the enabled regions for one account.
// Cached: region sets do not change mid-run.
func CachedEC2DescribeRegions(client EC2ClientInterface, accountID string) ([]string, error) {
	cacheKey := fmt.Sprintf("%s-ec2-DescribeRegions", accountID)
	cached, found := internal.Cache.Get(cacheKey)
	if found {
		return cached.([]string), nil
	}

	DescribeRegions, err := client.DescribeRegions(
		context.TODO(),
		&ec2.DescribeRegionsInput{
			AllRegions: aws.Bool(false),
		},
	)
	if err != nil {
		return nil, err
	}

	var regions []string
	for _, region := range DescribeRegions.Regions {
		if aws.ToString(region.RegionName) != "" {
			regions = append(regions, aws.ToString(region.RegionName))
		}
	}
	internal.Cache.Set(cacheKey, regions, cache.DefaultExpiration)
	return regions, nil
}

// EC2DefaultVpcs lists default VPCs in a region. Not cached: deletion
// decisions need fresh reads.
func EC2DefaultVpcs(client EC2ClientInterface, region string) ([]ec2Types.Vpc, error) {
	var PaginationControl *string
	var vpcs []ec2Types.Vpc
	for {
		DescribeVpcs, err := client.DescribeVpcs(
			context.TODO(),
			&ec2.DescribeVpcsInput{
				Filters: []ec2Types.Filter{
					{
						Name:   aws.String("is-default"),
						Values: []string{"true"},
					},
				},
				NextToken: PaginationControl,
			},
			func(o *ec2.Options) {
				o.Region = region
			},
		)
		if err != nil {
			return vpcs, err
		}

		vpcs = append(vpcs, DescribeVpcs.Vpcs...)

		//pagination
		if DescribeVpcs.NextToken == nil {
			break
		}
		PaginationControl = DescribeVpcs.NextToken
	}
	return vpcs, nil
}

// EC2VpcByNameTag resolves a VPC id from its Name tag.
func EC2VpcByNameTag(client EC2ClientInterface, region string, vpcName string) (ec2Types.Vpc, error) {
	DescribeVpcs, err := client.DescribeVpcs(
		context.TODO(),
		&ec2.DescribeVpcsInput{
			Filters: []ec2Types.Filter{
				{
					Name:   aws.String("tag:Name"),
					Values: []string{vpcName},
				},
			},
		},
		func(o *ec2.Options) {
			o.Region = region
		},
	)
	if err != nil {
		return ec2Types.Vpc{}, err
	}
	if len(DescribeVpcs.Vpcs) == 0 {
		return ec2Types.Vpc{}, fmt.Errorf("no VPC named %q in %s", vpcName, region)
	}
	return DescribeVpcs.Vpcs[0], nil
}

// EC2VpcById fetches a single VPC.
func EC2VpcById(client EC2ClientInterface, region string, vpcID string) (ec2Types.Vpc, error) {
	DescribeVpcs, err := client.DescribeVpcs(
		context.TODO(),
		&ec2.DescribeVpcsInput{
			VpcIds: []string{vpcID},
		},
		func(o *ec2.Options) {
			o.Region = region
		},
	)
	if err != nil {
		return ec2Types.Vpc{}, err
	}
	if len(DescribeVpcs.Vpcs) == 0 {
		return ec2Types.Vpc{}, fmt.Errorf("VPC %s not found in %s", vpcID, region)
	}
	return DescribeVpcs.Vpcs[0], nil
}

// EC2SubnetsByVpc lists all subnets of one VPC, following pagination.
func EC2SubnetsByVpc(client EC2ClientInterface, region string, vpcID string) ([]ec2Types.Subnet, error) {
	var PaginationControl *string
	var subnets []ec2Types.Subnet
	for {
		DescribeSubnets, err := client.DescribeSubnets(
			context.TODO(),
			&ec2.DescribeSubnetsInput{
				Filters: []ec2Types.Filter{
					{
						Name:   aws.String("vpc-id"),
						Values: []string{vpcID},
					},
				},
				NextToken: PaginationControl,
			},
			func(o *ec2.Options) {
				o.Region = region
			},
		)
		if err != nil {
			return subnets, err
		}

		subnets = append(subnets, DescribeSubnets.Subnets...)

		//pagination
		if DescribeSubnets.NextToken == nil {
			break
		}
		PaginationControl = DescribeSubnets.NextToken
	}
	return subnets, nil
}

// EC2NetworkInterfacesByVpc lists the ENIs still attached inside a VPC.
func EC2NetworkInterfacesByVpc(client EC2ClientInterface, region string, vpcID string) ([]ec2Types.NetworkInterface, error) {
	var PaginationControl *string
	var enis []ec2Types.NetworkInterface
	for {
		DescribeNetworkInterfaces, err := client.DescribeNetworkInterfaces(
			context.TODO(),
			&ec2.DescribeNetworkInterfacesInput{
				Filters: []ec2Types.Filter{
					{
						Name:   aws.String("vpc-id"),
						Values: []string{vpcID},
					},
				},
				NextToken: PaginationControl,
			},
			func(o *ec2.Options) {
				o.Region = region
			},
		)
		if err != nil {
			return enis, err
		}

		enis = append(enis, DescribeNetworkInterfaces.NetworkInterfaces...)

		//pagination
		if DescribeNetworkInterfaces.NextToken == nil {
			break
		}
		PaginationControl = DescribeNetworkInterfaces.NextToken
	}
	return enis, nil
}

// EC2InternetGatewaysByVpc lists the IGWs attached to a VPC.
func EC2InternetGatewaysByVpc(client EC2ClientInterface, region string, vpcID string) ([]ec2Types.InternetGateway, error) {
	DescribeInternetGateways, err := client.DescribeInternetGateways(
		context.TODO(),
		&ec2.DescribeInternetGatewaysInput{
			Filters: []ec2Types.Filter{
				{
					Name:   aws.String("attachment.vpc-id"),
					Values: []string{vpcID},
				},
			},
		},
		func(o *ec2.Options) {
			o.Region = region
		},
	)
	if err != nil {
		return nil, err
	}
	return DescribeInternetGateways.InternetGateways, nil
}

func EC2DeleteSubnet(client EC2ClientInterface, region string, subnetID string) error {
	_, err := client.DeleteSubnet(
		context.TODO(),
		&ec2.DeleteSubnetInput{
			SubnetId: aws.String(subnetID),
		},
		func(o *ec2.Options) {
			o.Region = region
		},
	)
	return err
}

func EC2DeleteInternetGateway(client EC2ClientInterface, region string, vpcID string, igwID string) error {
	_, err := client.DetachInternetGateway(
		context.TODO(),
		&ec2.DetachInternetGatewayInput{
			InternetGatewayId: aws.String(igwID),
			VpcId:             aws.String(vpcID),
		},
		func(o *ec2.Options) {
			o.Region = region
		},
	)
	if err != nil {
		return err
	}
	_, err = client.DeleteInternetGateway(
		context.TODO(),
		&ec2.DeleteInternetGatewayInput{
			InternetGatewayId: aws.String(igwID),
		},
		func(o *ec2.Options) {
			o.Region = region
		},
	)
	return err
}

func EC2DeleteVpc(client EC2ClientInterface, region string, vpcID string) error {
	_, err := client.DeleteVpc(
		context.TODO(),
		&ec2.DeleteVpcInput{
			VpcId: aws.String(vpcID),
		},
		func(o *ec2.Options) {
			o.Region = region
		},
	)
	return err
}

// EC2CreateTags applies tags to one resource.
func EC2CreateTags(client EC2ClientInterface, region string, resourceID string, tags map[string]string) error {
	var ec2Tags []ec2Types.Tag
	for key, value := range tags {
		ec2Tags = append(ec2Tags, ec2Types.Tag{
			Key:   aws.String(key),
			Value: aws.String(value),
		})
	}
	_, err := client.CreateTags(
		context.TODO(),
		&ec2.CreateTagsInput{
			Resources: []string{resourceID},
			Tags:      ec2Tags,
		},
		func(o *ec2.Options) {
			o.Region = region
		},
	)
	return err
}

// TagValue pulls one tag value out of an EC2 tag set, empty when absent.
func TagValue(tags []ec2Types.Tag, key string) string {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == key {
			return aws.ToString(tag.Value)
		}
	}
	return ""
}
