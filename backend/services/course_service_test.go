package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"coursemarket/backend/models"
	"coursemarket/backend/repository"
	"coursemarket/backend/testutil"
	"coursemarket/backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func pricePtr(s string) *DisplayPrice {
	p := DisplayPrice(s)
	return &p
}

func sectionsPtr(sections []models.Section) *SectionList {
	l := SectionList(sections)
	return &l
}

func TestUpdateCourseCurriculumIDs(t *testing.T) {
	db, svc := newServices(t, Deps{})
	ctx := context.Background()
	course := testutil.SeedCourse(t, db, "teacher_1")

	payload := []models.Section{
		{SectionID: "keep-me", SectionTitle: "Existing", Chapters: []models.Chapter{
			{ChapterID: "chapter-keep", Type: models.ChapterText, Title: "Old"},
			{Type: models.ChapterVideo, Title: "New video"},
		}},
		{SectionTitle: "Brand new", Chapters: []models.Chapter{
			{Type: models.ChapterQuiz, Title: "Quiz"},
		}},
	}

	first, err := svc.Courses.Update(ctx, course, UpdateCourseInput{Sections: sectionsPtr(payload)})
	require.NoError(t, err)
	got := first.SectionList()
	require.Len(t, got, 2)
	assert.Equal(t, "keep-me", got[0].SectionID)
	assert.Equal(t, "chapter-keep", got[0].Chapters[0].ChapterID)
	_, err = uuid.Parse(got[0].Chapters[1].ChapterID)
	assert.NoError(t, err)
	_, err = uuid.Parse(got[1].SectionID)
	assert.NoError(t, err)
	_, err = uuid.Parse(got[1].Chapters[0].ChapterID)
	assert.NoError(t, err)

	// Re-sending the stored curriculum keeps every id.
	second, err := svc.Courses.Update(ctx, first, UpdateCourseInput{Sections: sectionsPtr(got)})
	require.NoError(t, err)
	assert.Equal(t, got, second.SectionList())

	// Sending the id-less payload again mints different ids.
	third, err := svc.Courses.Update(ctx, second, UpdateCourseInput{Sections: sectionsPtr(payload)})
	require.NoError(t, err)
	again := third.SectionList()
	assert.NotEqual(t, got[1].SectionID, again[1].SectionID)
	assert.NotEqual(t, got[0].Chapters[1].ChapterID, again[0].Chapters[1].ChapterID)

	stored, err := repository.NewCourseRepo(db).Get(repository.Ctx(ctx), course.CourseID)
	require.NoError(t, err)
	assert.Equal(t, again, stored.SectionList())
}

func TestAssignCurriculumIDsUnique(t *testing.T) {
	sections := make([]models.Section, 20)
	for i := range sections {
		sections[i] = models.Section{SectionTitle: "s", Chapters: []models.Chapter{{Title: "c"}, {Title: "d"}}}
	}
	seen := map[string]bool{}
	for _, s := range AssignCurriculumIDs(sections) {
		require.False(t, seen[s.SectionID])
		seen[s.SectionID] = true
		for _, ch := range s.Chapters {
			require.False(t, seen[ch.ChapterID])
			seen[ch.ChapterID] = true
		}
	}
	assert.Len(t, seen, 60)
	assert.Empty(t, sections[0].SectionID, "input must not be modified")
}

func TestUpdateCoursePrice(t *testing.T) {
	db, svc := newServices(t, Deps{})
	ctx := context.Background()
	course := testutil.SeedCourse(t, db, "teacher_1")
	repo := repository.NewCourseRepo(db)

	updated, err := svc.Courses.Update(ctx, course, UpdateCourseInput{Price: pricePtr("49")})
	require.NoError(t, err)
	assert.Equal(t, int64(4900), updated.Price)

	stored, err := repo.Get(repository.Ctx(ctx), course.CourseID)
	require.NoError(t, err)
	assert.Equal(t, int64(4900), stored.Price)

	_, err = svc.Courses.Update(ctx, stored, UpdateCourseInput{
		Title: strPtr("Should not land"),
		Price: pricePtr("abc"),
	})
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	unchanged, err := repo.Get(repository.Ctx(ctx), course.CourseID)
	require.NoError(t, err)
	assert.Equal(t, int64(4900), unchanged.Price)
	assert.Equal(t, course.Title, unchanged.Title)

	_, err = svc.Courses.Update(ctx, unchanged, UpdateCourseInput{Price: pricePtr("922337203685477580")})
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	unchanged, err = repo.Get(repository.Ctx(ctx), course.CourseID)
	require.NoError(t, err)
	assert.Equal(t, int64(4900), unchanged.Price)
}

func TestDisplayPriceUnmarshal(t *testing.T) {
	cases := []struct {
		body    string
		cents   int64
		invalid bool
	}{
		{`{"price":"49"}`, 4900, false},
		{`{"price":49}`, 4900, false},
		{`{"price":" 12 "}`, 1200, false},
		{`{"price":"0"}`, 0, false},
		{`{"price":"abc"}`, 0, true},
		{`{"price":"49.99"}`, 0, true},
		{`{"price":"-3"}`, 0, true},
		{`{"price":"92233720368547758"}`, 9223372036854775800, false},
		{`{"price":"92233720368547759"}`, 0, true},
		{`{"price":"922337203685477580"}`, 0, true},
		{`{"price":"99999999999999999999"}`, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.body, func(t *testing.T) {
			var in UpdateCourseInput
			require.NoError(t, json.Unmarshal([]byte(tc.body), &in))
			require.NotNil(t, in.Price)
			cents, err := in.Price.MinorUnits()
			if tc.invalid {
				assert.True(t, utils.IsKind(err, utils.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.cents, cents)
		})
	}
}

func TestSectionListAcceptsEncodedString(t *testing.T) {
	var in UpdateCourseInput
	body := `{"sections":"[{\"sectionTitle\":\"Intro\",\"chapters\":[{\"type\":\"Text\",\"title\":\"Hi\"}]}]"}`
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	require.NotNil(t, in.Sections)
	require.Len(t, *in.Sections, 1)
	assert.Equal(t, "Intro", (*in.Sections)[0].SectionTitle)
}

func TestExtensionMapAcceptsEncodedString(t *testing.T) {
	var in UpdateCourseInput
	require.NoError(t, json.Unmarshal([]byte(`{"extensions":"{\"language\":\"en\"}"}`), &in))
	assert.Equal(t, ExtensionMap{"language": "en"}, in.Extensions)

	in = UpdateCourseInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"extensions":{"level":"b1"}}`), &in))
	assert.Equal(t, ExtensionMap{"level": "b1"}, in.Extensions)

	assert.Error(t, json.Unmarshal([]byte(`{"extensions":"not json"}`), &in))
}

func TestUpdateCourseValidation(t *testing.T) {
	db, svc := newServices(t, Deps{})
	ctx := context.Background()
	course := testutil.SeedCourse(t, db, "teacher_1")

	tooMany := map[string]string{}
	for i := 0; i < 17; i++ {
		tooMany[fmt.Sprintf("k%d", i)] = "v"
	}
	level := models.CourseLevel("Expert")

	cases := map[string]UpdateCourseInput{
		"too many extensions":  {Extensions: tooMany},
		"long extension key":   {Extensions: map[string]string{strings.Repeat("k", 65): "v"}},
		"long extension value": {Extensions: map[string]string{"k": strings.Repeat("v", 1025)}},
		"unknown level":        {Level: &level},
		"chapter without type": {Sections: sectionsPtr([]models.Section{{SectionTitle: "s", Chapters: []models.Chapter{{Title: "c"}}}})},
		"empty title":          {Title: strPtr("")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Courses.Update(ctx, course, in)
			require.Error(t, err)
			assert.True(t, utils.IsKind(err, utils.KindValidation))
		})
	}

	ok, err := svc.Courses.Update(ctx, course, UpdateCourseInput{Extensions: map[string]string{"language": "en"}})
	require.NoError(t, err)
	assert.Equal(t, "en", ok.Extensions.Data()["language"])
}

func TestGetOwned(t *testing.T) {
	db, svc := newServices(t, Deps{})
	ctx := context.Background()
	course := testutil.SeedCourse(t, db, "teacher_1")

	owned, err := svc.Courses.GetOwned(ctx, course.CourseID, "teacher_1")
	require.NoError(t, err)
	assert.Equal(t, course.CourseID, owned.CourseID)

	_, err = svc.Courses.GetOwned(ctx, course.CourseID, "teacher_2")
	assert.True(t, utils.IsKind(err, utils.KindForbidden))

	_, err = svc.Courses.GetOwned(ctx, "missing", "teacher_1")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestCreateCourseDefaults(t *testing.T) {
	_, svc := newServices(t, Deps{})
	ctx := context.Background()

	course, err := svc.Courses.Create(ctx, "teacher_1", CreateCourseInput{TeacherName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "teacher_1", course.TeacherID)
	assert.Equal(t, "Untitled Course", course.Title)
	assert.Equal(t, "Uncategorized", course.Category)
	assert.Equal(t, models.CourseStatusDraft, course.Status)
	assert.Equal(t, models.LevelBeginner, course.Level)
	assert.Zero(t, course.Price)
	assert.Empty(t, course.SectionList())

	_, err = svc.Courses.Create(ctx, "teacher_1", CreateCourseInput{})
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestGetReadsThroughCache(t *testing.T) {
	cache := newMapCache()
	db, svc := newServices(t, Deps{Cache: cache})
	ctx := context.Background()
	course := testutil.SeedCourse(t, db, "teacher_1")

	got, err := svc.Courses.Get(ctx, course.CourseID)
	require.NoError(t, err)
	assert.Equal(t, course.Title, got.Title)
	_, cached := cache.Get(ctx, course.CourseID)
	assert.True(t, cached)

	_, err = svc.Courses.Update(ctx, got, UpdateCourseInput{Title: strPtr("Fresh")})
	require.NoError(t, err)
	_, cached = cache.Get(ctx, course.CourseID)
	assert.False(t, cached)

	got, err = svc.Courses.Get(ctx, course.CourseID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", got.Title)

	_, err = svc.Courses.Get(ctx, "missing")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestListCourses(t *testing.T) {
	db, svc := newServices(t, Deps{})
	ctx := context.Background()
	testutil.SeedCourse(t, db, "teacher_1")
	testutil.SeedCourse(t, db, "teacher_2")

	all, err := svc.Courses.List(ctx, "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := svc.Courses.List(ctx, "Cooking")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteCourse(t *testing.T) {
	db, svc := newServices(t, Deps{})
	ctx := context.Background()
	course := testutil.SeedCourse(t, db, "teacher_1")

	require.NoError(t, svc.Courses.Delete(ctx, course))
	_, err := svc.Courses.Get(ctx, course.CourseID)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	err = svc.Courses.Delete(ctx, course)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestUploadURL(t *testing.T) {
	signer := &fakeSigner{}
	db, svc := newServices(t, Deps{Storage: signer})
	ctx := context.Background()
	course := testutil.SeedCourse(t, db, "teacher_1")

	out, err := svc.Courses.UploadURL(ctx, course, "sec-1", "ch-2", UploadURLInput{FileName: "../../lesson 1.mp4", FileType: "video/mp4"})
	require.NoError(t, err)
	require.Len(t, signer.keys, 1)
	key := signer.keys[0]
	assert.True(t, strings.HasPrefix(key, "videos/"))
	assert.True(t, strings.HasSuffix(key, "/lesson 1.mp4"))
	assert.Equal(t, "https://cdn.test/"+key, out.VideoURL)
	assert.Contains(t, out.UploadURL, key)

	_, err = svc.Courses.UploadURL(ctx, course, "sec-1", "nope", UploadURLInput{FileName: "a.mp4", FileType: "video/mp4"})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	_, err = svc.Courses.UploadURL(ctx, course, "sec-1", "ch-2", UploadURLInput{FileName: "a.mp4"})
	assert.True(t, utils.IsKind(err, utils.KindValidation))

	signer.err = errors.New("bucket unavailable")
	_, err = svc.Courses.UploadURL(ctx, course, "sec-1", "ch-2", UploadURLInput{FileName: "a.mp4", FileType: "video/mp4"})
	assert.True(t, utils.IsKind(err, utils.KindUpstream))
}

func TestUploadURLWithoutStorage(t *testing.T) {
	db, svc := newServices(t, Deps{})
	course := testutil.SeedCourse(t, db, "teacher_1")

	_, err := svc.Courses.UploadURL(context.Background(), course, "sec-1", "ch-2", UploadURLInput{FileName: "a.mp4", FileType: "video/mp4"})
	assert.True(t, utils.IsKind(err, utils.KindUpstream))
}
