package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

// logLossEpsilon は log(0) を避けるためのクリッピング幅
const logLossEpsilon = 1e-15

// checkPair は2つのベクトルの長さが一致し空でないことを確認する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// checkBinaryLabels はラベルが0または1のみであることを確認する
func checkBinaryLabels(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		v := y.AtVec(i)
		if v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nil
}

// firstColumn は行列の先頭列をVecDenseとして取り出す
func firstColumn(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	col := make([]float64, r)
	mat.Col(col, 0, m)
	return mat.NewVecDense(r, col), nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率 (1 - Accuracy) を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// AccuracyScore は列ベクトル行列 (n×1) に対して正解率を計算する
func AccuracyScore(yTrue, yPred mat.Matrix) (float64, error) {
	t, err := firstColumn("AccuracyScore", yTrue)
	if err != nil {
		return 0, err
	}
	p, err := firstColumn("AccuracyScore", yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(t, p)
}

// BinaryLogLoss は二値分類のクロスエントロピー損失を計算する。
// yPred は陽性クラスの確率で、[eps, 1-eps] にクリップされる。
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yPred.AtVec(i), logLossEpsilon, 1-logLossEpsilon)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// ROCCurve は受信者操作特性曲線を計算する。
// 戻り値は閾値の降順に並んだ偽陽性率・真陽性率・閾値。
func ROCCurve(yTrue, scores *mat.VecDense) (fpr, tpr, thresh []float64, err error) {
	n, err := checkPair("ROCCurve", yTrue, scores)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := checkBinaryLabels("ROCCurve", yTrue); err != nil {
		return nil, nil, nil, err
	}

	type pair struct {
		score float64
		pos   bool
	}
	pairs := make([]pair, n)
	for i := range pairs {
		pairs[i] = pair{score: scores.AtVec(i), pos: yTrue.AtVec(i) == 1}
	}
	// stat.ROC は昇順ソート済みのスコアを要求する
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	y := make([]float64, n)
	classes := make([]bool, n)
	for i, p := range pairs {
		y[i] = p.score
		classes[i] = p.pos
	}

	tpr, fpr, thresh = stat.ROC(nil, y, classes, nil)
	return fpr, tpr, thresh, nil
}

// AUC はROC曲線下面積を計算する。
// 正例または負例しか存在しない場合は UndefinedMetricWarning を出し 0.5 を返す。
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("AUC", yTrue); err != nil {
		return 0, err
	}

	positives := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			positives++
		}
	}
	if positives == 0 || positives == n {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in y_true", 0.5))
		return 0.5, nil
	}

	fpr, tpr, _, err := ROCCurve(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return integrate.Trapezoidal(fpr, tpr), nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する（先頭列を使用）
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, err := firstColumn("AUCMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	p, err := firstColumn("AUCMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return AUC(t, p)
}

// ConfusionMatrix は混同行列を計算する。
// 行が真のラベル、列が予測ラベルで、labels は両者に現れたラベルの昇順。
func ConfusionMatrix(yTrue, yPred mat.Matrix) (*mat.Dense, []int, error) {
	t, err := firstColumn("ConfusionMatrix", yTrue)
	if err != nil {
		return nil, nil, err
	}
	p, err := firstColumn("ConfusionMatrix", yPred)
	if err != nil {
		return nil, nil, err
	}
	n, err := checkPair("ConfusionMatrix", t, p)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[int]struct{})
	for i := 0; i < n; i++ {
		seen[int(t.AtVec(i))] = struct{}{}
		seen[int(p.AtVec(i))] = struct{}{}
	}
	labels := make([]int, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	index := make(map[int]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		r, c := index[int(t.AtVec(i))], index[int(p.AtVec(i))]
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, labels, nil
}

// PrecisionRecallF1 は指定した陽性ラベルに対する適合率・再現率・F1を計算する。
// 分母が0になる指標は UndefinedMetricWarning を出し 0 とする。
func PrecisionRecallF1(yTrue, yPred mat.Matrix, positive int) (precision, recall, f1 float64, err error) {
	t, err := firstColumn("PrecisionRecallF1", yTrue)
	if err != nil {
		return 0, 0, 0, err
	}
	p, err := firstColumn("PrecisionRecallF1", yPred)
	if err != nil {
		return 0, 0, 0, err
	}
	n, err := checkPair("PrecisionRecallF1", t, p)
	if err != nil {
		return 0, 0, 0, err
	}

	var tp, fp, fn float64
	for i := 0; i < n; i++ {
		actual := int(t.AtVec(i)) == positive
		predicted := int(p.AtVec(i)) == positive
		switch {
		case actual && predicted:
			tp++
		case !actual && predicted:
			fp++
		case actual && !predicted:
			fn++
		}
	}

	if tp+fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted samples", 0))
	} else {
		precision = tp / (tp + fp)
	}
	if tp+fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no true samples", 0))
	} else {
		recall = tp / (tp + fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1, nil
}
