package review

// lexicon — валентности слов по шкале [-4, 4] (значения взяты из словаря VADER).
var lexicon = map[string]float64{
	// позитив
	"amazing": 2.8, "awesome": 3.1, "beautiful": 2.9, "best": 3.2, "better": 1.9,
	"brilliant": 2.8, "comfortable": 1.5, "cool": 1.3, "delight": 2.9, "delighted": 3.1,
	"easy": 1.9, "enjoy": 2.2, "enjoyed": 2.3, "excellent": 2.7, "fantastic": 2.6,
	"fast": 1.0, "fine": 0.8, "fun": 2.3, "glad": 2.0, "good": 1.9,
	"gorgeous": 3.0, "great": 3.1, "happy": 2.7, "helpful": 1.8, "impressed": 2.1,
	"impressive": 2.3, "incredible": 2.1, "like": 2.0, "liked": 1.8, "love": 3.2,
	"loved": 2.9, "lovely": 2.8, "nice": 1.8, "ok": 1.2, "okay": 0.9,
	"outstanding": 3.0, "perfect": 2.7, "perfectly": 3.2, "phenomenal": 2.9, "pleased": 1.9,
	"recommend": 1.5, "recommended": 1.6, "reliable": 1.9, "satisfied": 1.8, "smooth": 1.2,
	"solid": 1.3, "sturdy": 1.0, "superb": 3.1, "terrific": 3.1, "thanks": 1.9,
	"useful": 1.9, "win": 2.8, "wonderful": 2.7, "worth": 0.9, "wow": 2.8,
	// негатив
	"angry": -2.3, "annoying": -1.9, "awful": -2.0, "bad": -2.5, "boring": -1.3,
	"broke": -1.8, "broken": -2.1, "cheap": -0.6, "complaint": -1.5, "crap": -1.6,
	"damaged": -2.2, "defective": -1.9, "disappointed": -1.9, "disappointing": -2.2, "disappointment": -2.3,
	"fail": -2.5, "failed": -2.3, "fake": -2.1, "faulty": -2.0, "flimsy": -1.5,
	"garbage": -1.5, "hate": -2.7, "hated": -3.2, "horrible": -2.5, "junk": -1.7,
	"lousy": -2.5, "mediocre": -1.2, "poor": -2.1, "poorly": -1.9, "problem": -1.7,
	"problems": -1.7, "regret": -1.8, "rubbish": -1.8, "sad": -2.1, "scam": -2.9,
	"slow": -1.0, "sucks": -1.5, "terrible": -2.1, "ugly": -2.3, "unhappy": -1.8,
	"useless": -1.8, "waste": -1.8, "wasted": -2.2, "worse": -2.1, "worst": -3.1,
	"wrong": -2.1,
}

// boosters усиливают (>0) или ослабляют (<0) следующее оценочное слово.
var boosters = map[string]float64{
	"absolutely": boosterIncr, "completely": boosterIncr, "especially": boosterIncr, "extremely": boosterIncr,
	"highly": boosterIncr, "incredibly": boosterIncr, "really": boosterIncr, "so": boosterIncr,
	"super": boosterIncr, "totally": boosterIncr, "truly": boosterIncr, "very": boosterIncr,
	"barely": boosterDecr, "hardly": boosterDecr, "slightly": boosterDecr, "somewhat": boosterDecr,
	"marginally": boosterDecr, "occasionally": boosterDecr, "partly": boosterDecr, "sort": boosterDecr,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nobody": {}, "nothing": {}, "neither": {},
	"nor": {}, "nowhere": {}, "without": {}, "cannot": {}, "aint": {}, "dont": {}, "doesnt": {},
	"didnt": {}, "isnt": {}, "arent": {}, "wasnt": {}, "werent": {}, "wont": {}, "cant": {},
	"hadnt": {}, "hasnt": {}, "havent": {}, "shouldnt": {}, "wouldnt": {}, "couldnt": {}, "mustnt": {},
}
