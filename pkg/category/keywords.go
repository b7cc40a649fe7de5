package category

// DefaultKeywords returns the built-in English and Turkish keyword sets in
// tie-break priority order: person, book, film.
func DefaultKeywords() []Keywords {
	return []Keywords{
		{
			Category: Person,
			Document: []string{
				"doğum", "birth", "ölüm", "death", "hayat", "life",
				"biyografi", "biography", "marie curie", "meslek", "occupation",
			},
			Query: []string{
				"kimdir", "who is", "doğum", "birth", "ölüm", "death",
				"hayatı", "life", "biyografi", "biography", "kişi", "person",
				"yaşamı", "kariyeri", "career", "başarı", "achievement",
			},
			Diagnostic: []string{
				"doğum", "birth", "ölüm", "death", "biyografi", "biography", "marie curie", "kimdir", "who is",
			},
		},
		{
			Category: Book,
			Document: []string{
				"kitap", "book", "yazar", "author", "sayfa", "page",
				"roman", "novel", "yüzük", "lord of rings", "tolkien",
			},
			Query: []string{
				"kitap", "book", "roman", "novel", "yazar", "author",
				"oku", "read", "sayfa", "page", "bölüm", "chapter",
				"yayınevi", "publisher", "basım", "edition",
			},
			Diagnostic: []string{
				"kitap", "book", "yazar", "author", "roman", "novel", "tolkien", "lord of rings",
			},
		},
		{
			Category: Film,
			Document: []string{
				"film", "movie", "sinema", "cinema", "yönetmen", "director",
				"oyuncu", "actor", "imdb", "cast", "inception",
			},
			Query: []string{
				"film", "movie", "sinema", "izle", "yönetmen",
				"director", "oyuncu", "actor", "actress", "cast",
				"imdb", "oscar", "vizyon", "box office", "gişe",
				"başrol", "senaryo", "screenplay",
			},
			Diagnostic: []string{
				"film", "movie", "sinema", "cinema", "yönetmen", "director", "imdb", "inception",
			},
		},
	}
}
