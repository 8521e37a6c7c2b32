package core

import (
	"slices"

	"timetracker/pkg/domain"
)

// Workload is either a project (project != nil), which forms a tree, or a
// flat work stream. Beneficiaries and assigned users are kept symmetric
// with the other side.
type Workload struct {
	object

	project *projectShape

	displayName string
	description string

	beneficiaries []*Beneficiary
	assignees     []*User
	activities    []*Activity
}

type projectShape struct {
	parent    *Workload
	children  []*Workload
	completed bool
}

// WorkloadFields are the properties shared by projects and work streams.
type WorkloadFields struct {
	DisplayName string
	Description string
}

// ProjectFields add the tree position and completion flag of a project.
type ProjectFields struct {
	WorkloadFields
	Parent    *Workload
	Completed bool
}

// CreateProject creates a project, under fields.Parent when set.
func (tx *Tx) CreateProject(fields ProjectFields) (*Workload, error) {
	return tx.createWorkload(fields.WorkloadFields, &projectShape{parent: fields.Parent, completed: fields.Completed})
}

// CreateWorkStream creates a work stream.
func (tx *Tx) CreateWorkStream(fields WorkloadFields) (*Workload, error) {
	return tx.createWorkload(fields, nil)
}

func (tx *Tx) createWorkload(fields WorkloadFields, project *projectShape) (*Workload, error) {
	if err := tx.mutable(); err != nil {
		return nil, err
	}
	kind := domain.EntityWorkStream
	if project != nil {
		kind = domain.EntityProject
	}
	v := tx.validator().Workload
	switch {
	case !v.IsValidDisplayName(fields.DisplayName):
		return nil, errInvalidProperty(kind, "DisplayName", fields.DisplayName)
	case !v.IsValidDescription(fields.Description):
		return nil, errInvalidProperty(kind, "Description", fields.Description)
	}
	var parent *Workload
	if project != nil && project.parent != nil {
		parent = project.parent
		if err := checkProjectParent(tx, parent); err != nil {
			return nil, err
		}
	}
	if tx.store.workloadNameTaken(kind, parent, fields.DisplayName, nil) {
		return nil, errAlreadyExists(kind, "DisplayName", fields.DisplayName)
	}
	w := &Workload{
		object:      newObject(tx.store, tx.nextOid(), kind),
		displayName: fields.DisplayName,
		description: fields.Description,
	}
	if project != nil {
		w.project = &projectShape{parent: parent, completed: project.completed}
	}
	tx.store.register(w)
	if parent != nil {
		link(tx, parent, &parent.project.children, w)
	}
	return w, tx.structural()
}

func checkProjectParent(tx *Tx, parent *Workload) error {
	if err := tx.argument(parent); err != nil {
		return err
	}
	if parent.project == nil {
		return errIncompatible(domain.EntityProject, "parent must be a project")
	}
	return nil
}

func (w *Workload) parent() *Workload {
	if w.project == nil {
		return nil
	}
	return w.project.parent
}

// workloadNameTaken reports whether another live workload of the same kind
// and parent already uses name.
func (s *Store) workloadNameTaken(kind domain.EntityKind, parent *Workload, name string, self *Workload) bool {
	for _, obj := range s.live {
		w, ok := obj.(*Workload)
		if !ok || w == self || w.kind != kind || w.parent() != parent {
			continue
		}
		if w.displayName == name {
			return true
		}
	}
	return false
}

// Projects returns every live project.
func (tx *Tx) Projects() ([]*Workload, error) {
	return tx.workloadsOfKind(domain.EntityProject, false)
}

// RootProjects returns the live projects without a parent.
func (tx *Tx) RootProjects() ([]*Workload, error) {
	return tx.workloadsOfKind(domain.EntityProject, true)
}

// WorkStreams returns every live work stream.
func (tx *Tx) WorkStreams() ([]*Workload, error) {
	return tx.workloadsOfKind(domain.EntityWorkStream, false)
}

func (tx *Tx) workloadsOfKind(kind domain.EntityKind, rootsOnly bool) ([]*Workload, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}
	return liveOf(tx.store, func(w *Workload) bool {
		return w.kind == kind && (!rootsOnly || w.parent() == nil)
	}), nil
}

// IsProject reports whether the workload is a project.
func (w *Workload) IsProject() bool { return w.kind == domain.EntityProject }

// DisplayName returns the workload's name.
func (w *Workload) DisplayName(tx *Tx) (string, error) {
	return readProp(tx, &w.object, func() string { return w.displayName })
}

// SetDisplayName renames the workload. Project names are unique among
// siblings, work stream names among work streams.
func (w *Workload) SetDisplayName(tx *Tx, name string) error {
	return tx.set(w, func() error {
		if !tx.validator().Workload.IsValidDisplayName(name) {
			return errInvalidProperty(w.kind, "DisplayName", name)
		}
		if tx.store.workloadNameTaken(w.kind, w.parent(), name, w) {
			return errAlreadyExists(w.kind, "DisplayName", name)
		}
		return nil
	}, func() bool { return assign(&w.displayName, name) })
}

// Description returns the workload's description.
func (w *Workload) Description(tx *Tx) (string, error) {
	return readProp(tx, &w.object, func() string { return w.description })
}

// SetDescription changes the description.
func (w *Workload) SetDescription(tx *Tx, description string) error {
	return tx.set(w, func() error {
		return invalidUnless(tx.validator().Workload.IsValidDescription(description), w.kind, "Description", description)
	}, func() bool { return assign(&w.description, description) })
}

// Beneficiaries returns the beneficiaries of the workload.
func (w *Workload) Beneficiaries(tx *Tx) ([]*Beneficiary, error) {
	return readProp(tx, &w.object, func() []*Beneficiary { return cloneList(w.beneficiaries) })
}

// AddBeneficiary associates b with the workload on both sides.
func (w *Workload) AddBeneficiary(tx *Tx, b *Beneficiary) error {
	if err := tx.write(&w.object); err != nil {
		return err
	}
	if err := tx.argument(b); err != nil {
		return err
	}
	linkBeneficiary(tx, w, b)
	return tx.structural()
}

// RemoveBeneficiary dissociates b from the workload on both sides.
func (w *Workload) RemoveBeneficiary(tx *Tx, b *Beneficiary) error {
	if err := tx.write(&w.object); err != nil {
		return err
	}
	if err := tx.argument(b); err != nil {
		return err
	}
	unlinkBeneficiary(tx, w, b)
	return tx.structural()
}

// SetBeneficiaries replaces the workload's beneficiaries.
func (w *Workload) SetBeneficiaries(tx *Tx, beneficiaries []*Beneficiary) error {
	if err := tx.write(&w.object); err != nil {
		return err
	}
	if err := checkArguments(tx, beneficiaries); err != nil {
		return err
	}
	if hasDuplicates(beneficiaries) {
		return errInvalidProperty(w.kind, "Beneficiaries", "duplicate beneficiary")
	}
	for _, b := range cloneList(w.beneficiaries) {
		if !containsItem(beneficiaries, b) {
			unlinkBeneficiary(tx, w, b)
		}
	}
	for _, b := range beneficiaries {
		linkBeneficiary(tx, w, b)
	}
	if !slices.Equal(w.beneficiaries, beneficiaries) {
		w.beneficiaries = cloneList(beneficiaries)
		tx.store.touch(w)
	}
	return tx.structural()
}

// Assignees returns the users assigned to the workload.
func (w *Workload) Assignees(tx *Tx) ([]*User, error) {
	return readProp(tx, &w.object, func() []*User { return cloneList(w.assignees) })
}

// AddAssignee assigns u to the workload on both sides.
func (w *Workload) AddAssignee(tx *Tx, u *User) error {
	if err := tx.write(&w.object); err != nil {
		return err
	}
	if err := tx.argument(u); err != nil {
		return err
	}
	linkAssignee(tx, w, u)
	return tx.structural()
}

// RemoveAssignee unassigns u from the workload on both sides.
func (w *Workload) RemoveAssignee(tx *Tx, u *User) error {
	if err := tx.write(&w.object); err != nil {
		return err
	}
	if err := tx.argument(u); err != nil {
		return err
	}
	unlinkAssignee(tx, w, u)
	return tx.structural()
}

// SetAssignees replaces the workload's assigned users.
func (w *Workload) SetAssignees(tx *Tx, users []*User) error {
	if err := tx.write(&w.object); err != nil {
		return err
	}
	if err := checkArguments(tx, users); err != nil {
		return err
	}
	if hasDuplicates(users) {
		return errInvalidProperty(w.kind, "Assignees", "duplicate user")
	}
	for _, u := range cloneList(w.assignees) {
		if !containsItem(users, u) {
			unlinkAssignee(tx, w, u)
		}
	}
	for _, u := range users {
		linkAssignee(tx, w, u)
	}
	if !slices.Equal(w.assignees, users) {
		w.assignees = cloneList(users)
		tx.store.touch(w)
	}
	return tx.structural()
}

// ContributingActivities returns the activities that contribute to the
// workload.
func (w *Workload) ContributingActivities(tx *Tx) ([]*Activity, error) {
	return readProp(tx, &w.object, func() []*Activity { return cloneList(w.activities) })
}

func (w *Workload) projectOnly(tx *Tx) error {
	if err := tx.read(&w.object); err != nil {
		return err
	}
	if w.project == nil {
		return errIncompatible(w.kind, "not a project")
	}
	return nil
}

// Parent returns the parent project, nil for a root project.
func (w *Workload) Parent(tx *Tx) (*Workload, error) {
	if err := w.projectOnly(tx); err != nil {
		return nil, err
	}
	return w.project.parent, nil
}

// Children returns the project's direct subprojects.
func (w *Workload) Children(tx *Tx) ([]*Workload, error) {
	if err := w.projectOnly(tx); err != nil {
		return nil, err
	}
	return cloneList(w.project.children), nil
}

// Completed reports whether the project is marked completed.
func (w *Workload) Completed(tx *Tx) (bool, error) {
	if err := w.projectOnly(tx); err != nil {
		return false, err
	}
	return w.project.completed, nil
}

// SetCompleted marks the project completed or open.
func (w *Workload) SetCompleted(tx *Tx, completed bool) error {
	if err := w.projectOnly(tx); err != nil {
		return err
	}
	return tx.set(w, nil, func() bool { return assign(&w.project.completed, completed) })
}

// SetParent moves the project under parent; nil makes it a root project.
// Moving a project under itself or a descendant is rejected.
func (w *Workload) SetParent(tx *Tx, parent *Workload) error {
	if err := w.projectOnly(tx); err != nil {
		return err
	}
	if err := tx.write(&w.object); err != nil {
		return err
	}
	if parent != nil {
		if err := checkProjectParent(tx, parent); err != nil {
			return err
		}
		for p := parent; p != nil; p = p.project.parent {
			if p == w {
				return errInvalidProperty(w.kind, "Parent", parent.oid)
			}
		}
	}
	if w.project.parent == parent {
		return nil
	}
	if tx.store.workloadNameTaken(w.kind, parent, w.displayName, w) {
		return errAlreadyExists(w.kind, "DisplayName", w.displayName)
	}
	if old := w.project.parent; old != nil {
		unlink(tx, old, &old.project.children, w)
	}
	w.project.parent = parent
	if parent != nil {
		link(tx, parent, &parent.project.children, w)
	}
	tx.store.touch(w)
	return tx.structural()
}

func (w *Workload) destroyLocked(tx *Tx) {
	beginDestroy(w)
	if w.project != nil {
		for _, child := range cloneList(w.project.children) {
			tx.destroy(child)
		}
	}
	for _, b := range cloneList(w.beneficiaries) {
		unlinkBeneficiary(tx, w, b)
	}
	for _, u := range cloneList(w.assignees) {
		unlinkAssignee(tx, w, u)
	}
	for _, a := range cloneList(w.activities) {
		a.workload = nil
		tx.store.touch(a)
	}
	w.activities = nil
	if p := w.parent(); p != nil {
		unlink(tx, p, &p.project.children, w)
	}
	tx.store.kill(w)
}
