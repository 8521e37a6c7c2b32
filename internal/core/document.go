package core

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"timetracker/pkg/domain"
)

const formatVersion = "1"

type xmlWorkspace struct {
	XMLName       xml.Name    `xml:"Workspace"`
	FormatVersion string      `xml:"FormatVersion,attr"`
	Objects       []xmlObject `xml:",any"`
}

type xmlObject struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Links   []xmlLink  `xml:"Link"`
}

type xmlLink struct {
	Name    string `xml:"Name,attr"`
	Targets string `xml:"Targets,attr"`
}

// encodeLocked renders every live object, grouped by kind in document
// order and by oid within a kind.
func (s *Store) encodeLocked() ([]byte, error) {
	doc := xmlWorkspace{FormatVersion: formatVersion}
	for _, kind := range domain.EntityKinds {
		for _, obj := range liveOf(s, func(o Object) bool { return o.Kind() == kind }) {
			doc.Objects = append(doc.Objects, encodeObject(obj))
		}
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

type elementWriter struct {
	el xmlObject
}

func (w *elementWriter) attr(name, value string) {
	w.el.Attrs = append(w.el.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func (w *elementWriter) boolean(name string, v bool) {
	if v {
		w.attr(name, "Y")
	} else {
		w.attr(name, "N")
	}
}

func (w *elementWriter) duration(name string, d *time.Duration) {
	if d == nil {
		w.attr(name, "")
		return
	}
	w.attr(name, strconv.FormatInt(int64(*d/time.Second), 10))
}

func (w *elementWriter) timestamp(name string, t time.Time) {
	w.attr(name, t.UTC().Format(time.RFC3339Nano))
}

func (w *elementWriter) ref(name string, obj Object) {
	w.el.Links = append(w.el.Links, xmlLink{Name: name, Targets: obj.OID().String()})
}

func writeLinks[T Object](w *elementWriter, name string, list []T) {
	if len(list) == 0 {
		return
	}
	tokens := make([]string, len(list))
	for i, item := range list {
		tokens[i] = item.OID().String()
	}
	w.el.Links = append(w.el.Links, xmlLink{Name: name, Targets: strings.Join(tokens, " ")})
}

func encodeObject(obj Object) xmlObject {
	w := &elementWriter{el: xmlObject{XMLName: xml.Name{Local: string(obj.Kind())}}}
	w.attr("Oid", obj.OID().String())
	switch x := obj.(type) {
	case *User:
		w.attr("RealName", x.realName)
		w.duration("InactivityTimeout", x.inactivityTimeout)
		w.attr("UILocale", x.uiLocale)
		w.attr("EmailAddresses", joinEmails(x.emailAddresses))
		w.boolean("Enabled", x.enabled)
		writeLinks(w, "Accounts", x.accounts)
		writeLinks(w, "PrivateActivities", x.privateActivities)
		writeLinks(w, "Workloads", x.workloads)
	case *Account:
		w.attr("Login", x.login)
		w.attr("PasswordHash", x.passwordHash)
		w.attr("Capabilities", x.capabilities.Pack())
		w.boolean("Enabled", x.enabled)
		w.attr("EmailAddresses", joinEmails(x.emailAddresses))
		w.ref("User", x.user)
		writeLinks(w, "QuickPickList", x.quickPicks)
		writeLinks(w, "Works", x.works)
		writeLinks(w, "Events", x.events)
	case *ActivityType:
		w.attr("DisplayName", x.displayName)
		w.attr("Description", x.description)
		writeLinks(w, "Activities", x.activities)
	case *Activity:
		w.attr("DisplayName", x.displayName)
		w.attr("Description", x.description)
		w.duration("Timeout", x.timeout)
		w.boolean("RequireCommentOnStart", x.requireCommentOnStart)
		w.boolean("RequireCommentOnStop", x.requireCommentOnStop)
		w.boolean("FullScreenReminder", x.fullScreenReminder)
		if x.task != nil {
			w.boolean("Completed", x.task.completed)
		}
		if x.owner != nil {
			w.ref("Owner", x.owner)
		}
		if x.task != nil {
			if x.task.parent != nil {
				w.ref("Parent", x.task.parent)
			}
			writeLinks(w, "Children", x.task.children)
		}
		if x.activityType != nil {
			w.ref("ActivityType", x.activityType)
		}
		if x.workload != nil {
			w.ref("Workload", x.workload)
		}
		writeLinks(w, "QuickPickers", x.quickPickers)
		writeLinks(w, "Works", x.works)
		writeLinks(w, "Events", x.events)
	case *Workload:
		w.attr("DisplayName", x.displayName)
		w.attr("Description", x.description)
		if x.project != nil {
			w.boolean("Completed", x.project.completed)
			if x.project.parent != nil {
				w.ref("Parent", x.project.parent)
			}
			writeLinks(w, "Children", x.project.children)
		}
		writeLinks(w, "Beneficiaries", x.beneficiaries)
		writeLinks(w, "Assignees", x.assignees)
		writeLinks(w, "Activities", x.activities)
	case *Beneficiary:
		w.attr("DisplayName", x.displayName)
		w.attr("Description", x.description)
		writeLinks(w, "Workloads", x.workloads)
	case *Work:
		w.timestamp("StartedAt", x.startedAt)
		w.timestamp("FinishedAt", x.finishedAt)
		w.ref("Account", x.account)
		w.ref("Activity", x.activity)
	case *Event:
		w.timestamp("OccurredAt", x.occurredAt)
		w.attr("Summary", x.summary)
		w.ref("Account", x.account)
		writeLinks(w, "Activities", x.activities)
	}
	return w.el
}

// decodeLocked loads a document into an empty store in two passes: every
// object is instantiated with its properties first, then associations are
// resolved, since links may point forward.
func (s *Store) decodeLocked(data []byte) error {
	var doc xmlWorkspace
	if err := xml.Unmarshal(data, &doc); err != nil {
		return s.errCorrupt("malformed document: %v", err)
	}
	if doc.FormatVersion != formatVersion {
		return s.errCorrupt("unsupported format version %q", doc.FormatVersion)
	}
	objects := make([]Object, len(doc.Objects))
	for i := range doc.Objects {
		obj, err := s.decodeProperties(&doc.Objects[i])
		if err != nil {
			return err
		}
		if _, dup := s.live[obj.OID()]; dup {
			return s.errCorrupt("duplicate oid %s", obj.OID())
		}
		s.live[obj.OID()] = obj
		s.oids.Observe(obj.OID())
		objects[i] = obj
	}
	for i, obj := range objects {
		if err := s.decodeLinks(obj, doc.Objects[i].Links); err != nil {
			return err
		}
	}
	return nil
}

type attrReader struct {
	store  *Store
	kind   domain.EntityKind
	values map[string]string
	used   int
	err    error
}

func (r *attrReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = r.store.errCorrupt("%s: "+format, append([]any{r.kind.DisplayName()}, args...)...)
	}
}

func (r *attrReader) str(name string) string {
	v, ok := r.values[name]
	if !ok {
		r.fail("missing attribute %s", name)
		return ""
	}
	r.used++
	return v
}

func (r *attrReader) boolean(name string) bool {
	switch v := r.str(name); v {
	case "Y":
		return true
	case "N":
		return false
	default:
		r.fail("attribute %s: %q is not Y or N", name, v)
		return false
	}
}

func (r *attrReader) duration(name string) *time.Duration {
	v := r.str(name)
	if v == "" {
		return nil
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail("attribute %s: %v", name, err)
		return nil
	}
	d := time.Duration(secs) * time.Second
	return &d
}

func (r *attrReader) timestamp(name string) time.Time {
	v := r.str(name)
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		r.fail("attribute %s: %v", name, err)
		return time.Time{}
	}
	return t.UTC()
}

func (r *attrReader) emails(name string) []string {
	v := r.str(name)
	if v == "" {
		return nil
	}
	return strings.Split(v, ";")
}

func (r *attrReader) capabilities(name string) domain.Capabilities {
	caps, err := domain.ParseCapabilities(r.str(name))
	if err != nil {
		r.fail("attribute %s: %v", name, err)
	}
	return caps
}

func (s *Store) decodeProperties(el *xmlObject) (Object, error) {
	kind := domain.EntityKind(el.XMLName.Local)
	if !kind.Known() {
		return nil, s.errCorrupt("unknown element <%s>", el.XMLName.Local)
	}
	r := &attrReader{store: s, kind: kind, values: make(map[string]string, len(el.Attrs))}
	for _, a := range el.Attrs {
		if _, dup := r.values[a.Name.Local]; dup || a.Name.Space != "" {
			return nil, s.errCorrupt("%s: repeated or qualified attribute %s", kind.DisplayName(), a.Name.Local)
		}
		r.values[a.Name.Local] = a.Value
	}
	oid, err := domain.ParseOid(r.str("Oid"))
	if err != nil {
		return nil, s.errCorrupt("%s: %v", kind.DisplayName(), err)
	}
	base := newObject(s, oid, kind)

	var obj Object
	switch kind {
	case domain.EntityUser:
		obj = &User{
			object:            base,
			realName:          r.str("RealName"),
			inactivityTimeout: r.duration("InactivityTimeout"),
			uiLocale:          r.str("UILocale"),
			emailAddresses:    r.emails("EmailAddresses"),
			enabled:           r.boolean("Enabled"),
		}
	case domain.EntityAccount:
		obj = &Account{
			object:         base,
			login:          r.str("Login"),
			passwordHash:   r.str("PasswordHash"),
			capabilities:   r.capabilities("Capabilities"),
			enabled:        r.boolean("Enabled"),
			emailAddresses: r.emails("EmailAddresses"),
		}
	case domain.EntityActivityType:
		obj = &ActivityType{object: base, displayName: r.str("DisplayName"), description: r.str("Description")}
	case domain.EntityPublicActivity, domain.EntityPublicTask, domain.EntityPrivateActivity, domain.EntityPrivateTask:
		a := &Activity{
			object:                base,
			displayName:           r.str("DisplayName"),
			description:           r.str("Description"),
			timeout:               r.duration("Timeout"),
			requireCommentOnStart: r.boolean("RequireCommentOnStart"),
			requireCommentOnStop:  r.boolean("RequireCommentOnStop"),
			fullScreenReminder:    r.boolean("FullScreenReminder"),
		}
		if kind.IsTask() {
			a.task = &taskShape{completed: r.boolean("Completed")}
		}
		obj = a
	case domain.EntityProject, domain.EntityWorkStream:
		w := &Workload{object: base, displayName: r.str("DisplayName"), description: r.str("Description")}
		if kind == domain.EntityProject {
			w.project = &projectShape{completed: r.boolean("Completed")}
		}
		obj = w
	case domain.EntityBeneficiary:
		obj = &Beneficiary{object: base, displayName: r.str("DisplayName"), description: r.str("Description")}
	case domain.EntityWork:
		obj = &Work{object: base, startedAt: r.timestamp("StartedAt"), finishedAt: r.timestamp("FinishedAt")}
	case domain.EntityEvent:
		obj = &Event{object: base, occurredAt: r.timestamp("OccurredAt"), summary: r.str("Summary")}
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.used != len(r.values) {
		return nil, s.errCorrupt("%s %s: unexpected attributes", kind.DisplayName(), oid)
	}
	return obj, nil
}

type linkReader struct {
	store *Store
	owner Object
	links map[string][]domain.Oid
	used  int
	err   error
}

func (r *linkReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = r.store.errCorrupt("%s %s: "+format, append([]any{r.owner.Kind().DisplayName(), r.owner.OID()}, args...)...)
	}
}

func resolveList[T Object](r *linkReader, name string) []T {
	oids, ok := r.links[name]
	if !ok {
		return nil
	}
	r.used++
	out := make([]T, 0, len(oids))
	for _, oid := range oids {
		target, ok := r.store.live[oid].(T)
		if !ok {
			r.fail("link %s: %s is not a suitable object", name, oid)
			return nil
		}
		out = append(out, target)
	}
	return out
}

func resolveOne[T Object](r *linkReader, name string) T {
	var zero T
	list := resolveList[T](r, name)
	switch len(list) {
	case 0:
		return zero
	case 1:
		return list[0]
	default:
		r.fail("link %s holds %d targets", name, len(list))
		return zero
	}
}

func (s *Store) decodeLinks(obj Object, links []xmlLink) error {
	r := &linkReader{store: s, owner: obj, links: make(map[string][]domain.Oid, len(links))}
	for _, l := range links {
		if _, dup := r.links[l.Name]; dup {
			r.fail("repeated link %s", l.Name)
			return r.err
		}
		var oids []domain.Oid
		for _, token := range strings.Fields(l.Targets) {
			oid, err := domain.ParseOid(token)
			if err != nil {
				r.fail("link %s: %v", l.Name, err)
				return r.err
			}
			oids = append(oids, oid)
		}
		if len(oids) == 0 {
			r.fail("link %s has no targets", l.Name)
			return r.err
		}
		r.links[l.Name] = oids
	}

	switch x := obj.(type) {
	case *User:
		x.accounts = resolveList[*Account](r, "Accounts")
		x.privateActivities = resolveList[*Activity](r, "PrivateActivities")
		x.workloads = resolveList[*Workload](r, "Workloads")
	case *Account:
		x.user = resolveOne[*User](r, "User")
		x.quickPicks = resolveList[*Activity](r, "QuickPickList")
		x.works = resolveList[*Work](r, "Works")
		x.events = resolveList[*Event](r, "Events")
		if x.user == nil {
			r.fail("missing link User")
		}
	case *ActivityType:
		x.activities = resolveList[*Activity](r, "Activities")
	case *Activity:
		x.owner = resolveOne[*User](r, "Owner")
		if x.task != nil {
			x.task.parent = resolveOne[*Activity](r, "Parent")
			x.task.children = resolveList[*Activity](r, "Children")
		}
		x.activityType = resolveOne[*ActivityType](r, "ActivityType")
		x.workload = resolveOne[*Workload](r, "Workload")
		x.quickPickers = resolveList[*Account](r, "QuickPickers")
		x.works = resolveList[*Work](r, "Works")
		x.events = resolveList[*Event](r, "Events")
	case *Workload:
		if x.project != nil {
			x.project.parent = resolveOne[*Workload](r, "Parent")
			x.project.children = resolveList[*Workload](r, "Children")
		}
		x.beneficiaries = resolveList[*Beneficiary](r, "Beneficiaries")
		x.assignees = resolveList[*User](r, "Assignees")
		x.activities = resolveList[*Activity](r, "Activities")
	case *Beneficiary:
		x.workloads = resolveList[*Workload](r, "Workloads")
	case *Work:
		x.account = resolveOne[*Account](r, "Account")
		x.activity = resolveOne[*Activity](r, "Activity")
		if x.account == nil || x.activity == nil {
			r.fail("missing link Account or Activity")
		}
	case *Event:
		x.account = resolveOne[*Account](r, "Account")
		x.activities = resolveList[*Activity](r, "Activities")
		if x.account == nil {
			r.fail("missing link Account")
		}
	}
	if r.err != nil {
		return r.err
	}
	if r.used != len(r.links) {
		r.fail("unexpected links")
		return r.err
	}
	return nil
}
