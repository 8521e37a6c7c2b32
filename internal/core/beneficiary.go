package core

import (
	"slices"

	"timetracker/pkg/domain"
)

// Beneficiary is a party that workloads are carried out for.
type Beneficiary struct {
	object

	displayName string
	description string

	workloads []*Workload
}

// BeneficiaryFields are the initial properties of a new beneficiary.
type BeneficiaryFields struct {
	DisplayName string
	Description string
}

// CreateBeneficiary creates a beneficiary with a unique display name.
func (tx *Tx) CreateBeneficiary(fields BeneficiaryFields) (*Beneficiary, error) {
	if err := tx.mutable(); err != nil {
		return nil, err
	}
	v := tx.validator().Beneficiary
	switch {
	case !v.IsValidDisplayName(fields.DisplayName):
		return nil, errInvalidProperty(domain.EntityBeneficiary, "DisplayName", fields.DisplayName)
	case !v.IsValidDescription(fields.Description):
		return nil, errInvalidProperty(domain.EntityBeneficiary, "Description", fields.Description)
	}
	if tx.store.beneficiaryByName(fields.DisplayName) != nil {
		return nil, errAlreadyExists(domain.EntityBeneficiary, "DisplayName", fields.DisplayName)
	}
	b := &Beneficiary{
		object:      newObject(tx.store, tx.nextOid(), domain.EntityBeneficiary),
		displayName: fields.DisplayName,
		description: fields.Description,
	}
	tx.store.register(b)
	return b, tx.structural()
}

func (s *Store) beneficiaryByName(name string) *Beneficiary {
	for _, obj := range s.live {
		if b, ok := obj.(*Beneficiary); ok && b.displayName == name {
			return b
		}
	}
	return nil
}

// Beneficiaries returns every live beneficiary in oid order.
func (tx *Tx) Beneficiaries() ([]*Beneficiary, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return liveOf[*Beneficiary](tx.store, nil), nil
}

// DisplayName returns the beneficiary's name.
func (b *Beneficiary) DisplayName(tx *Tx) (string, error) {
	return readProp(tx, &b.object, func() string { return b.displayName })
}

// SetDisplayName renames the beneficiary.
func (b *Beneficiary) SetDisplayName(tx *Tx, name string) error {
	return tx.set(b, func() error {
		if !tx.validator().Beneficiary.IsValidDisplayName(name) {
			return errInvalidProperty(b.kind, "DisplayName", name)
		}
		if other := tx.store.beneficiaryByName(name); other != nil && other != b {
			return errAlreadyExists(b.kind, "DisplayName", name)
		}
		return nil
	}, func() bool { return assign(&b.displayName, name) })
}

// Description returns the beneficiary's description.
func (b *Beneficiary) Description(tx *Tx) (string, error) {
	return readProp(tx, &b.object, func() string { return b.description })
}

// SetDescription changes the description.
func (b *Beneficiary) SetDescription(tx *Tx, description string) error {
	return tx.set(b, func() error {
		return invalidUnless(tx.validator().Beneficiary.IsValidDescription(description), b.kind, "Description", description)
	}, func() bool { return assign(&b.description, description) })
}

// Workloads returns the workloads carried out for the beneficiary.
func (b *Beneficiary) Workloads(tx *Tx) ([]*Workload, error) {
	return readProp(tx, &b.object, func() []*Workload { return cloneList(b.workloads) })
}

// AddWorkload associates w with the beneficiary on both sides.
func (b *Beneficiary) AddWorkload(tx *Tx, w *Workload) error {
	return w.AddBeneficiary(tx, b)
}

// RemoveWorkload dissociates w from the beneficiary on both sides.
func (b *Beneficiary) RemoveWorkload(tx *Tx, w *Workload) error {
	return w.RemoveBeneficiary(tx, b)
}

// SetWorkloads replaces the beneficiary's workloads.
func (b *Beneficiary) SetWorkloads(tx *Tx, workloads []*Workload) error {
	if err := tx.write(&b.object); err != nil {
		return err
	}
	if err := checkArguments(tx, workloads); err != nil {
		return err
	}
	if hasDuplicates(workloads) {
		return errInvalidProperty(b.kind, "Workloads", "duplicate workload")
	}
	for _, w := range cloneList(b.workloads) {
		if !containsItem(workloads, w) {
			unlinkBeneficiary(tx, w, b)
		}
	}
	for _, w := range workloads {
		linkBeneficiary(tx, w, b)
	}
	if !slices.Equal(b.workloads, workloads) {
		b.workloads = cloneList(workloads)
		tx.store.touch(b)
	}
	return tx.structural()
}

func (b *Beneficiary) destroyLocked(tx *Tx) {
	beginDestroy(b)
	for _, w := range cloneList(b.workloads) {
		unlinkBeneficiary(tx, w, b)
	}
	tx.store.kill(b)
}
