package generator

import "sort"

// Registry はモデル ID からジェネレーターを引くための読み取り専用マップです。
// 起動時に組み立てた後は変更しないため、ロックは持ちません。
type Registry struct {
	generators map[string]Generator
	defaultID  string
}

// NewRegistry はジェネレーターを登録順に保持するレジストリを構築します。
// 最初に登録されたものがデフォルトになります。
func NewRegistry(gens ...Generator) *Registry {
	r := &Registry{generators: make(map[string]Generator, len(gens))}
	for _, g := range gens {
		if g == nil {
			continue
		}
		if r.defaultID == "" {
			r.defaultID = g.ID()
		}
		r.generators[g.ID()] = g
	}
	return r
}

// Get は ID に対応するジェネレーターを返します。空 ID はデフォルトを意味します。
func (r *Registry) Get(id string) (Generator, bool) {
	if id == "" {
		id = r.defaultID
	}
	g, ok := r.generators[id]
	return g, ok
}

// IDs は登録済みのモデル ID を辞書順で返します。
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.generators))
	for id := range r.generators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty は 1 件も登録されていないかを返します。
func (r *Registry) Empty() bool { return len(r.generators) == 0 }
