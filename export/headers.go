package export

// PerProductHeader is the Ruten bulk-upload header.
var PerProductHeader = []string{
	"類別(必填)", "物品名稱(必填)", "商品價格(必填)", "數量(必填)", "自訂賣場分類", "物品說明", "物品新舊",
	"圖片1", "圖片2", "圖片3", "物品所在地", "評價總分需大於", "差勁評價需小於", "棄單不可超過次數",
	"手工製品", "附禮盒/提袋", "原廠保固", "賣家保固", "到府安裝", "DIY安裝", "專櫃正品", "公司貨",
	"平行輸入", "可開發票", "可開收據", "附保證書", "附鑑定書", "有多種尺寸", "有多種顏色", "海外運送",
	"賣家自用料號", "備貨狀態", "預計出貨年月(若備貨狀態為2，則必填)", "較長備商品出貨天數(若備貨狀態為6，則必填)",
}

// AllHeader is PerProductHeader with an OPTION column after the name.
var AllHeader = func() []string {
	h := make([]string, 0, len(PerProductHeader)+1)
	h = append(h, PerProductHeader[:2]...)
	h = append(h, "OPTION")
	return append(h, PerProductHeader[2:]...)
}()
