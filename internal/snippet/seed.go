package snippet

// Seed is the bundled default collection a fresh install starts with.
// Seed ids are fixed short strings so they can be told apart from
// user-created ULIDs when deciding whether local data is meaningful.
func Seed() []Snippet {
	return []Snippet{
		{ID: "1", Label: "メールアドレス", Content: "example@mail.com", Color: ColorBlue},
		{ID: "2", Label: "あいさつ", Content: "いつもお世話になっております。", Color: ColorGreen},
		{ID: "3", Label: "笑顔の顔文字", Content: "(❁´◡`❁)", Color: ColorPink},
		{ID: "4", Label: "郵便番号", Content: "123-4567", Color: ColorOrange},
		{ID: "5", Label: "完了フレーズ", Content: "ご確認のほど、よろしくお願いいたします。", Color: ColorPurple},
	}
}

// seedIDs is the id set of the bundled defaults.
var seedIDs = IDSet(Seed())

// IsSeedID reports whether id belongs to the bundled default set.
func IsSeedID(id string) bool {
	return seedIDs[id]
}

// Meaningful reports whether a local collection counts as user data:
// non-empty and containing at least one snippet whose id is not a seed
// id. Untouched fresh-install defaults therefore never trigger a merge
// prompt. Comparison is by id set only; editing a seed snippet in
// place without adding new ones does not count.
func Meaningful(s []Snippet) bool {
	if len(s) == 0 {
		return false
	}
	for _, v := range s {
		if !IsSeedID(v.ID) {
			return true
		}
	}
	return false
}
