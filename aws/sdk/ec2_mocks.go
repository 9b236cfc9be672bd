package sdk

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// MockedEC2Client serves a default VPC in us-east-1 plus a named workload
// VPC with typed subnets. ENIRegions lists regions whose default VPC still
// has network interfaces attached. Delete calls are recorded, and deleted
// resources disappear from subsequent Describe calls.
type MockedEC2Client struct {
	mu               sync.Mutex
	ENIRegions       []string
	DeletedSubnets   []string
	DeletedGateways  []string
	DeletedVpcs      []string
	Tagged           map[string]map[string]string
	DeleteVpcError   error
	DescribeVpcError error
}

func (m *MockedEC2Client) region(options []func(*ec2.Options)) string {
	opts := ec2.Options{}
	for _, fn := range options {
		fn(&opts)
	}
	return opts.Region
}

func (m *MockedEC2Client) deleted(list []string, id string) bool {
	for _, d := range list {
		if d == id {
			return true
		}
	}
	return false
}

func (m *MockedEC2Client) DescribeRegions(ctx context.Context, input *ec2.DescribeRegionsInput, options ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	return &ec2.DescribeRegionsOutput{
		Regions: []ec2Types.Region{
			{RegionName: aws.String("us-east-1")},
			{RegionName: aws.String("eu-west-1")},
		},
	}, nil
}

func (m *MockedEC2Client) DescribeVpcs(ctx context.Context, input *ec2.DescribeVpcsInput, options ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DescribeVpcError != nil {
		return nil, m.DescribeVpcError
	}

	defaultVpc := ec2Types.Vpc{
		VpcId:     aws.String("vpc-default0001"),
		IsDefault: aws.Bool(true),
		CidrBlock: aws.String("172.31.0.0/16"),
	}
	workloadVpc := ec2Types.Vpc{
		VpcId:     aws.String("vpc-workload001"),
		IsDefault: aws.Bool(false),
		CidrBlock: aws.String("10.20.0.0/16"),
		Tags: []ec2Types.Tag{
			{Key: aws.String("Name"), Value: aws.String("core-network")},
			{Key: aws.String("Environment"), Value: aws.String("shared")},
		},
	}

	all := []ec2Types.Vpc{defaultVpc, workloadVpc}
	var vpcs []ec2Types.Vpc
	for _, vpc := range all {
		if m.deleted(m.DeletedVpcs, aws.ToString(vpc.VpcId)) {
			continue
		}
		if !matchVpc(vpc, input) {
			continue
		}
		vpcs = append(vpcs, vpc)
	}
	return &ec2.DescribeVpcsOutput{Vpcs: vpcs}, nil
}

func matchVpc(vpc ec2Types.Vpc, input *ec2.DescribeVpcsInput) bool {
	if len(input.VpcIds) > 0 {
		for _, id := range input.VpcIds {
			if id == aws.ToString(vpc.VpcId) {
				return true
			}
		}
		return false
	}
	for _, filter := range input.Filters {
		switch aws.ToString(filter.Name) {
		case "is-default":
			isDefault := fmt.Sprintf("%t", aws.ToBool(vpc.IsDefault))
			if !containsString(filter.Values, isDefault) {
				return false
			}
		case "tag:Name":
			if !containsString(filter.Values, TagValue(vpc.Tags, "Name")) {
				return false
			}
		}
	}
	return true
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func (m *MockedEC2Client) DescribeSubnets(ctx context.Context, input *ec2.DescribeSubnetsInput, options ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var vpcID string
	for _, filter := range input.Filters {
		if aws.ToString(filter.Name) == "vpc-id" && len(filter.Values) > 0 {
			vpcID = filter.Values[0]
		}
	}

	all := map[string][]ec2Types.Subnet{
		"vpc-default0001": {
			{
				SubnetId:         aws.String("subnet-def00001"),
				VpcId:            aws.String("vpc-default0001"),
				AvailabilityZone: aws.String("us-east-1a"),
			},
			{
				SubnetId:         aws.String("subnet-def00002"),
				VpcId:            aws.String("vpc-default0001"),
				AvailabilityZone: aws.String("us-east-1b"),
			},
		},
		"vpc-workload001": {
			{
				SubnetId:           aws.String("subnet-wl000001"),
				VpcId:              aws.String("vpc-workload001"),
				AvailabilityZone:   aws.String("us-east-1a"),
				AvailabilityZoneId: aws.String("use1-az1"),
				Tags: []ec2Types.Tag{
					{Key: aws.String("Name"), Value: aws.String("core-network-public-use1-az1")},
				},
			},
			{
				SubnetId:           aws.String("subnet-wl000002"),
				VpcId:              aws.String("vpc-workload001"),
				AvailabilityZone:   aws.String("us-east-1b"),
				AvailabilityZoneId: aws.String("use1-az2"),
				Tags: []ec2Types.Tag{
					{Key: aws.String("Name"), Value: aws.String("core-network-private-use1-az2")},
				},
			},
			{
				SubnetId:           aws.String("subnet-wl000003"),
				VpcId:              aws.String("vpc-workload001"),
				AvailabilityZone:   aws.String("us-east-1c"),
				AvailabilityZoneId: aws.String("use1-az3"),
				Tags: []ec2Types.Tag{
					{Key: aws.String("Name"), Value: aws.String("core-network-db-use1-az3")},
				},
			},
			{
				SubnetId:           aws.String("subnet-wl000004"),
				VpcId:              aws.String("vpc-workload001"),
				AvailabilityZone:   aws.String("us-east-1a"),
				AvailabilityZoneId: aws.String("use1-az1"),
				Tags: []ec2Types.Tag{
					{Key: aws.String("Name"), Value: aws.String("something-unrelated")},
				},
			},
		},
	}

	var subnets []ec2Types.Subnet
	for _, subnet := range all[vpcID] {
		if !m.deleted(m.DeletedSubnets, aws.ToString(subnet.SubnetId)) {
			subnets = append(subnets, subnet)
		}
	}
	return &ec2.DescribeSubnetsOutput{Subnets: subnets}, nil
}

func (m *MockedEC2Client) DescribeNetworkInterfaces(ctx context.Context, input *ec2.DescribeNetworkInterfacesInput, options ...func(*ec2.Options)) (*ec2.DescribeNetworkInterfacesOutput, error) {
	region := m.region(options)
	for _, eniRegion := range m.ENIRegions {
		if eniRegion == region {
			return &ec2.DescribeNetworkInterfacesOutput{
				NetworkInterfaces: []ec2Types.NetworkInterface{
					{
						NetworkInterfaceId: aws.String("eni-inuse00001"),
						VpcId:              aws.String("vpc-default0001"),
						Description:        aws.String("ELB app/lingering-alb"),
					},
				},
			}, nil
		}
	}
	return &ec2.DescribeNetworkInterfacesOutput{}, nil
}

func (m *MockedEC2Client) DescribeInternetGateways(ctx context.Context, input *ec2.DescribeInternetGatewaysInput, options ...func(*ec2.Options)) (*ec2.DescribeInternetGatewaysOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleted(m.DeletedGateways, "igw-default001") {
		return &ec2.DescribeInternetGatewaysOutput{}, nil
	}
	return &ec2.DescribeInternetGatewaysOutput{
		InternetGateways: []ec2Types.InternetGateway{
			{
				InternetGatewayId: aws.String("igw-default001"),
				Attachments: []ec2Types.InternetGatewayAttachment{
					{VpcId: aws.String("vpc-default0001")},
				},
			},
		},
	}, nil
}

func (m *MockedEC2Client) DeleteSubnet(ctx context.Context, input *ec2.DeleteSubnetInput, options ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedSubnets = append(m.DeletedSubnets, aws.ToString(input.SubnetId))
	return &ec2.DeleteSubnetOutput{}, nil
}

func (m *MockedEC2Client) DetachInternetGateway(ctx context.Context, input *ec2.DetachInternetGatewayInput, options ...func(*ec2.Options)) (*ec2.DetachInternetGatewayOutput, error) {
	return &ec2.DetachInternetGatewayOutput{}, nil
}

func (m *MockedEC2Client) DeleteInternetGateway(ctx context.Context, input *ec2.DeleteInternetGatewayInput, options ...func(*ec2.Options)) (*ec2.DeleteInternetGatewayOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedGateways = append(m.DeletedGateways, aws.ToString(input.InternetGatewayId))
	return &ec2.DeleteInternetGatewayOutput{}, nil
}

func (m *MockedEC2Client) DeleteVpc(ctx context.Context, input *ec2.DeleteVpcInput, options ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteVpcError != nil {
		return nil, m.DeleteVpcError
	}
	m.DeletedVpcs = append(m.DeletedVpcs, aws.ToString(input.VpcId))
	return &ec2.DeleteVpcOutput{}, nil
}

func (m *MockedEC2Client) CreateTags(ctx context.Context, input *ec2.CreateTagsInput, options ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Tagged == nil {
		m.Tagged = map[string]map[string]string{}
	}
	for _, resource := range input.Resources {
		if m.Tagged[resource] == nil {
			m.Tagged[resource] = map[string]string{}
		}
		for _, tag := range input.Tags {
			m.Tagged[resource][aws.ToString(tag.Key)] = aws.ToString(tag.Value)
		}
	}
	return &ec2.CreateTagsOutput{}, nil
}
