package api

import (
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Defaults for the disk-cleanup policy.
const (
	DefaultSmallDirCap  = 100_000
	DefaultDiskCapacity = 70_000_000
	DefaultRequiredFree = 30_000_000
)

// Policy is the external configuration for the reports computed over a
// finished tree. It can be loaded from HCL or JSON:
//
//	small_dir_cap = 100000
//	disk_capacity = 70000000
//	required_free = 30000000
type Policy struct {
	// SmallDirCap is the inclusive size limit for the small-directory sum.
	SmallDirCap uint64 `json:"small_dir_cap"`
	// DiskCapacity is the total size of the device the transcript was taken on.
	DiskCapacity uint64 `json:"disk_capacity"`
	// RequiredFree is the free space needed after deleting one directory.
	RequiredFree uint64 `json:"required_free"`
}

// policyFile is the on-disk form. Absent attributes stay nil so that an
// explicit 0 is not mistaken for "use the default".
type policyFile struct {
	SmallDirCap  *uint64 `hcl:"small_dir_cap,optional"`
	DiskCapacity *uint64 `hcl:"disk_capacity,optional"`
	RequiredFree *uint64 `hcl:"required_free,optional"`
}

func (f policyFile) policy() Policy {
	p := DefaultPolicy()
	if f.SmallDirCap != nil {
		p.SmallDirCap = *f.SmallDirCap
	}
	if f.DiskCapacity != nil {
		p.DiskCapacity = *f.DiskCapacity
	}
	if f.RequiredFree != nil {
		p.RequiredFree = *f.RequiredFree
	}
	return p
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		SmallDirCap:  DefaultSmallDirCap,
		DiskCapacity: DefaultDiskCapacity,
		RequiredFree: DefaultRequiredFree,
	}
}

// Validate rejects policies that can never be satisfied.
func (p Policy) Validate() error {
	if p.RequiredFree > p.DiskCapacity {
		return errors.Newf("required_free %d exceeds disk_capacity %d", p.RequiredFree, p.DiskCapacity)
	}
	return nil
}

// LoadPolicy reads a policy file (.hcl or .json). Attributes left out take
// their default; an empty path yields the default policy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	var f policyFile
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return Policy{}, errors.Wrapf(err, "load policy %s", path)
	}
	p := f.policy()
	if err := p.Validate(); err != nil {
		return Policy{}, errors.Wrapf(err, "policy %s", path)
	}
	return p, nil
}
