package stoplist

// defaultWords is a short SMART-style English stoplist.
var defaultWords = []string{
	"a", "about", "above", "according", "across", "after", "afterwards", "again", "against",
	"all", "almost", "alone", "along", "already", "also", "although", "always", "am", "among",
	"amongst", "an", "and", "another", "any", "anyhow", "anyone", "anything", "anyway",
	"anywhere", "are", "around", "as", "at", "be", "became", "because", "become", "becomes",
	"becoming", "been", "before", "beforehand", "behind", "being", "below", "beside",
	"besides", "between", "beyond", "both", "but", "by", "can", "cannot", "could", "did",
	"do", "does", "doing", "done", "down", "due", "during", "each", "eg", "either", "else",
	"elsewhere", "enough", "especially", "etc", "even", "ever", "every", "everyone",
	"everything", "everywhere", "except", "few", "first", "for", "former", "formerly",
	"from", "further", "furthermore", "had", "has", "have", "having", "he", "hence", "her",
	"here", "hereafter", "hereby", "herein", "hers", "herself", "him", "himself", "his",
	"how", "however", "i", "ie", "if", "in", "indeed", "into", "is", "it", "its", "itself",
	"just", "last", "latter", "least", "less", "many", "may", "me", "meanwhile", "might",
	"more", "moreover", "most", "mostly", "much", "must", "my", "myself", "namely",
	"neither", "never", "nevertheless", "next", "no", "nobody", "none", "nor", "not",
	"nothing", "now", "nowhere", "of", "off", "often", "on", "once", "one", "only", "onto",
	"or", "other", "others", "otherwise", "our", "ours", "ourselves", "out", "over", "own",
	"per", "perhaps", "rather", "same", "several", "she", "should", "since", "so", "some",
	"somehow", "someone", "something", "sometimes", "somewhere", "still", "such", "than",
	"that", "the", "their", "theirs", "them", "themselves", "then", "thence", "there",
	"thereafter", "thereby", "therefore", "therein", "these", "they", "this", "those",
	"though", "through", "throughout", "thus", "to", "together", "too", "toward",
	"towards", "under", "until", "up", "upon", "us", "very", "via", "was", "we", "well",
	"were", "what", "whatever", "when", "whence", "whenever", "where", "whereas",
	"whereby", "wherein", "whether", "which", "while", "who", "whoever", "whole", "whom",
	"whose", "why", "will", "with", "within", "without", "would", "yet", "you", "your",
	"yours", "yourself", "yourselves",
}
