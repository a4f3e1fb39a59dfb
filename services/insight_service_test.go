package services

import (
	"testing"
	"time"

	"github.com/sahilchouksey/paper-insights-api/model"
)

func intPtr(v int) *int { return &v }

func aq(topic string, qType model.QuestionType, marks int, year string) aggregatedQuestion {
	return aggregatedQuestion{
		Topic:        topic,
		QuestionType: qType,
		Marks:        marks,
		QuestionText: "about " + topic,
		Year:         year,
	}
}

func TestBuildSubjectInsightEmptySubject(t *testing.T) {
	insight := buildSubjectInsight("Operating Systems", 0, nil, time.Now())

	if insight.MostAskedTopicByCount != model.MostAskedSentinel {
		t.Errorf("expected sentinel for by-count topic, got %q", insight.MostAskedTopicByCount)
	}
	if insight.MostAskedTopicByMarks != model.MostAskedSentinel {
		t.Errorf("expected sentinel for by-marks topic, got %q", insight.MostAskedTopicByMarks)
	}
	if insight.PaperCount != 0 {
		t.Errorf("expected paper count 0, got %d", insight.PaperCount)
	}
	if len(insight.TopicWeightage.Data()) != 0 {
		t.Errorf("expected empty weightage, got %v", insight.TopicWeightage.Data())
	}
	if len(insight.YearlyTrends.Data()) != 0 {
		t.Errorf("expected empty yearly trends, got %v", insight.YearlyTrends.Data())
	}
}

func TestBuildSubjectInsightMostAskedDiverges(t *testing.T) {
	// Deadlocks is asked more often, Scheduling carries more marks.
	questions := []aggregatedQuestion{
		aq("Deadlocks", model.QuestionSubjective, 2, "2024"),
		aq("Deadlocks", model.QuestionSubjective, 2, "2024"),
		aq("Deadlocks", model.QuestionSubjective, 2, "2024"),
		aq("Scheduling", model.QuestionNumerical, 10, "2024"),
		aq("Scheduling", model.QuestionNumerical, 10, "2024"),
	}

	insight := buildSubjectInsight("Operating Systems", 1, questions, time.Now())

	if insight.MostAskedTopicByCount != "Deadlocks" {
		t.Errorf("by-count topic = %q, want Deadlocks", insight.MostAskedTopicByCount)
	}
	if insight.MostAskedTopicByMarks != "Scheduling" {
		t.Errorf("by-marks topic = %q, want Scheduling", insight.MostAskedTopicByMarks)
	}
}

func TestBuildSubjectInsightWeightageRounding(t *testing.T) {
	// 48 of 72 total marks on Process Management: round(48/72*100) = 67
	questions := []aggregatedQuestion{
		aq("Process Management", model.QuestionSubjective, 48, "2023"),
		aq("Memory Management", model.QuestionSubjective, 24, "2023"),
	}

	insight := buildSubjectInsight("Operating Systems", 2, questions, time.Now())

	weightage := insight.TopicWeightage.Data()
	if weightage["Process Management"] != 67 {
		t.Errorf("Process Management weightage = %d, want 67", weightage["Process Management"])
	}
	if weightage["Memory Management"] != 33 {
		t.Errorf("Memory Management weightage = %d, want 33", weightage["Memory Management"])
	}
}

func TestBuildSubjectInsightTypeDistribution(t *testing.T) {
	questions := []aggregatedQuestion{
		aq("Paging", model.QuestionSubjective, 5, "2024"),
		aq("Paging", model.QuestionSubjective, 5, "2024"),
		aq("Paging", model.QuestionNumerical, 5, "2024"),
	}

	insight := buildSubjectInsight("Operating Systems", 1, questions, time.Now())

	dist := insight.QuestionTypeDistribution.Data()
	if dist["Subjective"] != 67 {
		t.Errorf("Subjective share = %d, want 67", dist["Subjective"])
	}
	if dist["Numerical"] != 33 {
		t.Errorf("Numerical share = %d, want 33", dist["Numerical"])
	}
}

func TestBuildSubjectInsightDominantTypeTieBreak(t *testing.T) {
	// Subjective and Numerical are tied for Paging; Subjective appeared
	// first so it must win, every run.
	questions := []aggregatedQuestion{
		aq("Paging", model.QuestionSubjective, 5, "2024"),
		aq("Paging", model.QuestionNumerical, 5, "2024"),
	}

	for i := 0; i < 50; i++ {
		insight := buildSubjectInsight("Operating Systems", 1, questions, time.Now())
		got := insight.TopicQuestionTypeMap.Data()["Paging"]
		if got != "Subjective" {
			t.Fatalf("run %d: dominant type = %q, want Subjective", i, got)
		}
	}
}

func TestBuildSubjectInsightMostAskedTieBreak(t *testing.T) {
	// Two topics tied on count and marks: the first-seen topic wins.
	questions := []aggregatedQuestion{
		aq("Deadlocks", model.QuestionSubjective, 5, "2024"),
		aq("Paging", model.QuestionSubjective, 5, "2024"),
	}

	for i := 0; i < 50; i++ {
		insight := buildSubjectInsight("Operating Systems", 1, questions, time.Now())
		if insight.MostAskedTopicByCount != "Deadlocks" {
			t.Fatalf("run %d: by-count = %q, want Deadlocks", i, insight.MostAskedTopicByCount)
		}
		if insight.MostAskedTopicByMarks != "Deadlocks" {
			t.Fatalf("run %d: by-marks = %q, want Deadlocks", i, insight.MostAskedTopicByMarks)
		}
	}
}

func TestBuildSubjectInsightYearlyTrends(t *testing.T) {
	questions := []aggregatedQuestion{
		aq("Deadlocks", model.QuestionSubjective, 5, "2023"),
		aq("Deadlocks", model.QuestionSubjective, 5, "2023"),
		aq("Paging", model.QuestionSubjective, 5, "2023"),
		aq("Deadlocks", model.QuestionSubjective, 5, "2024"),
	}

	insight := buildSubjectInsight("Operating Systems", 3, questions, time.Now())

	trends := insight.YearlyTrends.Data()
	if len(trends["2023"]) != 2 {
		t.Errorf("2023 topics = %v, want 2 distinct", trends["2023"])
	}
	if trends["2023"][0] != "Deadlocks" || trends["2023"][1] != "Paging" {
		t.Errorf("2023 topics out of order: %v", trends["2023"])
	}
	if len(trends["2024"]) != 1 || trends["2024"][0] != "Deadlocks" {
		t.Errorf("2024 topics = %v, want [Deadlocks]", trends["2024"])
	}
}

func TestCollectQuestionsSkipsUntopiced(t *testing.T) {
	topic := "Deadlocks"
	papers := []model.Paper{
		{
			CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Questions: []model.Question{
				{QuestionText: "q1", Topic: &topic, QuestionType: model.QuestionSubjective, Marks: intPtr(5)},
				{QuestionText: "q2", Topic: nil, QuestionType: model.QuestionSubjective, Marks: intPtr(5)},
				{QuestionText: "q3", Topic: new(string), QuestionType: model.QuestionSubjective},
			},
		},
	}

	questions := collectQuestions(papers)
	if len(questions) != 1 {
		t.Fatalf("collected %d questions, want 1", len(questions))
	}
	if questions[0].Topic != "Deadlocks" || questions[0].Marks != 5 || questions[0].Year != "2024" {
		t.Errorf("unexpected collected question: %+v", questions[0])
	}
}

func TestCollectQuestionsNilMarksCountZero(t *testing.T) {
	topic := "Paging"
	papers := []model.Paper{
		{
			CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Questions: []model.Question{
				{QuestionText: "q1", Topic: &topic, QuestionType: model.QuestionMCQ, Marks: nil},
			},
		},
	}

	questions := collectQuestions(papers)
	if len(questions) != 1 {
		t.Fatalf("collected %d questions, want 1", len(questions))
	}
	if questions[0].Marks != 0 {
		t.Errorf("nil marks collected as %d, want 0", questions[0].Marks)
	}
}

func TestPercentage(t *testing.T) {
	cases := []struct {
		part, total, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{48, 72, 67},
		{24, 72, 33},
		{1, 3, 33},
		{2, 3, 67},
		{1, 1, 100},
	}

	for _, tc := range cases {
		if got := percentage(tc.part, tc.total); got != tc.want {
			t.Errorf("percentage(%d, %d) = %d, want %d", tc.part, tc.total, got, tc.want)
		}
	}
}
