package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumberedBlocks(t *testing.T) {
	response := `[1]
정부가 새 부동산 대책을 발표함
시장 반응은 엇갈리는 중임
결론: 단기 효과는 제한적일 듯

[2]
- 삼성전자가 반도체 공장을 증설함
- 투자 규모는 20조원임
결론: 공급 확대 신호임`

	blocks := ParseNumberedBlocks(response)
	assert.Len(t, blocks, 2)

	assert.Equal(t, 1, blocks[0].Index)
	assert.Equal(t, []string{"정부가 새 부동산 대책을 발표함", "시장 반응은 엇갈리는 중임"}, blocks[0].Lines)
	assert.Equal(t, "단기 효과는 제한적일 듯", blocks[0].Conclusion)

	// Bullet markers are stripped.
	assert.Equal(t, 2, blocks[1].Index)
	assert.Equal(t, "삼성전자가 반도체 공장을 증설함", blocks[1].Lines[0])
	assert.Equal(t, "공급 확대 신호임", blocks[1].Conclusion)
}

func TestParseNumberedBlocksMissingConclusion(t *testing.T) {
	response := `[1]
요약 첫 줄임
결론: 결론임
[2]
결론 없는 요약임`

	blocks := ParseNumberedBlocks(response)
	assert.Len(t, blocks, 2)
	assert.Equal(t, "결론임", blocks[0].Conclusion)

	// A block without a conclusion line is still kept.
	assert.Equal(t, []string{"결론 없는 요약임"}, blocks[1].Lines)
	assert.Empty(t, blocks[1].Conclusion)
}

func TestParseNumberedBlocksDropsEmpty(t *testing.T) {
	response := `[1]
실제 내용 있음
[2]

[3]
셋째 블록 내용임`

	blocks := ParseNumberedBlocks(response)
	assert.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].Index)
	assert.Equal(t, 3, blocks[1].Index)
}

func TestParseNumberedBlocksDropsConclusionOnly(t *testing.T) {
	// A conclusion with no summary lines is not a usable summary; the item
	// stays pending for the next cycle.
	assert.Nil(t, ParseNumberedBlocks("[1]\n결론: 결론만 있고 요약 줄이 없음"))

	blocks := ParseNumberedBlocks("[1]\n결론: 결론뿐임\n[2]\n요약 줄 있음\n결론: 정상임")
	assert.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].Index)
}

func TestParseNumberedBlocksLineCap(t *testing.T) {
	response := `[1]
줄 하나
줄 둘
줄 셋
줄 넷
줄 다섯
결론: 마무리`

	blocks := ParseNumberedBlocks(response)
	assert.Len(t, blocks, 1)
	assert.Len(t, blocks[0].Lines, maxSummaryLines)
	assert.Equal(t, "마무리", blocks[0].Conclusion)
}

func TestParseNumberedBlocksGarbage(t *testing.T) {
	assert.Nil(t, ParseNumberedBlocks("모델이 형식을 무시한 자유 텍스트"))
	assert.Nil(t, ParseNumberedBlocks(""))
}

func TestParseNumberedBlocksFullWidthColon(t *testing.T) {
	blocks := ParseNumberedBlocks("[1]\n요약임\n결론： 전각 콜론도 처리함")
	assert.Len(t, blocks, 1)
	assert.Equal(t, "전각 콜론도 처리함", blocks[0].Conclusion)
}
