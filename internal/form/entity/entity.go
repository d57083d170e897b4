package entity

// All 需要迁移的全部模型
func All() []any {
	return []any{
		&Form{},
		&Collection{},
		&CollectionSchema{},
		&Layout{},
		&CustomField{},
		&Submission{},
	}
}
