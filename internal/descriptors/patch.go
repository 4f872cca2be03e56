package descriptors

import (
	"descgraph/internal/source"
	"descgraph/internal/types"
)

type patchField uint32

const (
	patchOwner patchField = 1 << iota
	patchModality
	patchVisibility
	patchKind
	patchName
	patchValueParams
	patchTypeParams
	patchExtensionReceiver
	patchDispatchReceiver
	patchReturnType
	patchOriginal
	patchSource
)

// Patch describes a copy of a callable. The zero Patch copies the
// callable unchanged, keeping its overridden set. Patches are values:
// every With method returns a modified copy.
type Patch struct {
	set patchField

	owner             *Decl
	modality          Modality
	visibility        Visibility
	kind              CallableKind
	name              string
	valueParams       []*Decl
	typeParams        []*Decl
	extensionReceiver *types.Type
	dispatchReceiver  *Decl
	returnType        *types.Type
	original          *Decl
	source            source.Span
	substitution      types.Substitution
	annotations       []string

	dropOverrides   bool
	signatureChange bool
	preserveSource  bool
	dropOriginal    bool
	hiddenClash     bool
	hiddenResolve   bool
}

// NewPatch starts a patch whose copies keep d's original, the way
// substitution does.
func (d *Decl) NewPatch() Patch {
	return Patch{}.WithOriginal(d.Original())
}

func (p Patch) has(f patchField) bool { return p.set&f != 0 }

func (p Patch) WithOwner(owner *Decl) Patch {
	p.owner = owner
	p.set |= patchOwner
	return p
}

func (p Patch) WithModality(m Modality) Patch {
	p.modality = m
	p.set |= patchModality
	return p
}

func (p Patch) WithVisibility(v Visibility) Patch {
	p.visibility = v
	p.set |= patchVisibility
	return p
}

func (p Patch) WithKind(k CallableKind) Patch {
	p.kind = k
	p.set |= patchKind
	return p
}

func (p Patch) WithName(name string) Patch {
	p.name = name
	p.set |= patchName
	return p
}

// WithValueParameters replaces the parameter list. The given parameters
// are templates; the copy gets its own parameters built from them.
func (p Patch) WithValueParameters(params []*Decl) Patch {
	p.valueParams = params
	p.set |= patchValueParams
	return p
}

// WithTypeParameters replaces the type parameter list. Like value
// parameters they are recreated for the copy.
func (p Patch) WithTypeParameters(params []*Decl) Patch {
	p.typeParams = params
	p.set |= patchTypeParams
	return p
}

// WithExtensionReceiverType replaces the extension receiver type; nil
// removes the receiver.
func (p Patch) WithExtensionReceiverType(t *types.Type) Patch {
	p.extensionReceiver = t
	p.set |= patchExtensionReceiver
	return p
}

// WithDispatchReceiver replaces the dispatch receiver; nil removes it.
func (p Patch) WithDispatchReceiver(r *Decl) Patch {
	p.dispatchReceiver = r
	p.set |= patchDispatchReceiver
	return p
}

func (p Patch) WithReturnType(t *types.Type) Patch {
	p.returnType = t
	p.set |= patchReturnType
	return p
}

// WithOriginal sets the original of the copy. Without it the copy is
// its own original.
func (p Patch) WithOriginal(o *Decl) Patch {
	p.original = o
	p.set |= patchOriginal
	return p
}

func (p Patch) WithSource(sp source.Span) Patch {
	p.source = sp
	p.set |= patchSource
	return p
}

// WithSubstitution applies s to every type of the copy. It replaces any
// earlier substitution of the patch.
func (p Patch) WithSubstitution(s types.Substitution) Patch {
	p.substitution = s
	return p
}

func (p Patch) WithAdditionalAnnotations(names ...string) Patch {
	p.annotations = append(append([]string(nil), p.annotations...), names...)
	return p
}

// WithoutOverrides leaves the overridden set of the copy empty.
func (p Patch) WithoutOverrides() Patch {
	p.dropOverrides = true
	return p
}

// WithCopyOverrides is WithoutOverrides for copy == false.
func (p Patch) WithCopyOverrides(copyOverrides bool) Patch {
	p.dropOverrides = !copyOverrides
	return p
}

// WithSignatureChange records d as the initial signature of the copy.
func (p Patch) WithSignatureChange() Patch {
	p.signatureChange = true
	return p
}

// WithPreserveSource keeps the source of the copied decl.
func (p Patch) WithPreserveSource() Patch {
	p.preserveSource = true
	return p
}

// WithDropOriginalInContainingParts makes the parameters and accessors
// of the copy their own originals.
func (p Patch) WithDropOriginalInContainingParts() Patch {
	p.dropOriginal = true
	return p
}

func (p Patch) WithHiddenToOvercomeSignatureClash() Patch {
	p.hiddenClash = true
	return p
}

func (p Patch) WithHiddenForResolution() Patch {
	p.hiddenResolve = true
	return p
}

// Substitution returns the substitution of the patch, or nil.
func (p Patch) Substitution() types.Substitution { return p.substitution }

// onlySubstitutes reports a patch that does nothing but substitute and
// keep the original.
func (p Patch) onlySubstitutes() bool {
	return p.set&^patchOriginal == 0 && !p.dropOverrides && !p.signatureChange &&
		!p.dropOriginal && !p.hiddenClash && !p.hiddenResolve && len(p.annotations) == 0
}
