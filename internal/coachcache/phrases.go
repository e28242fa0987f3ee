package coachcache

import "github.com/kim-jongsoung/tikfind/internal/domain"

// quickPhrases is the static common-phrase table: greetings and thanks seen in
// nearly every stream, answered without touching the dynamic cache or the AI
// collaborator. Keys are normalized message text.
var quickPhrases = map[string]domain.CoachPayload{
	"hi": {
		OriginalMeaning: "안녕",
		Response:        "Nice to meet you",
		ResponseMeaning: "만나서 반가워요",
		Pronunciation:   "나이스 투 밋 유",
	},
	"hello": {
		OriginalMeaning: "안녕하세요",
		Response:        "Hello! Welcome!",
		ResponseMeaning: "환영 인사",
		Pronunciation:   "헬로우 웰컴",
	},
	"thanks": {
		OriginalMeaning: "감사합니다",
		Response:        "You're welcome",
		ResponseMeaning: "천만에요",
		Pronunciation:   "유어 웰컴",
	},
	"bye": {
		OriginalMeaning: "안녕히 가세요",
		Response:        "See you later",
		ResponseMeaning: "다음에 또 만나요",
		Pronunciation:   "씨 유 레이터",
	},
	"こんにちは": {
		OriginalMeaning: "안녕하세요",
		Response:        "はじめまして",
		ResponseMeaning: "처음 뵙겠습니다",
		Pronunciation:   "하지메마시테",
	},
	"ありがとう": {
		OriginalMeaning: "감사합니다",
		Response:        "どういたしまして",
		ResponseMeaning: "천만에요",
		Pronunciation:   "도-이타시마시테",
	},
	"你好": {
		OriginalMeaning: "안녕하세요",
		Response:        "很高兴见到你",
		ResponseMeaning: "만나서 반가워요",
		Pronunciation:   "헌 가오싱 지엔 따오 니",
	},
	"谢谢": {
		OriginalMeaning: "감사합니다",
		Response:        "不客气",
		ResponseMeaning: "천만에요",
		Pronunciation:   "부 커치",
	},
}
